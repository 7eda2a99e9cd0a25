package crochetschema

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuild(t *testing.T, schema string) *Schema {
	s, err := NewSchemaBuilder().BuildBytes([]byte(schema))
	require.Nil(t, err)
	return s
}

func mustValidate(t *testing.T, s *Schema, doc string) *ValidationResult {
	res, err := ValidateBytes(s, []byte(doc))
	require.Nil(t, err)
	return res
}

const idSchema = `{
"type": "object",
"required": ["id"],
"properties": {"id": {"type": "string"}}
}`

func TestMissingRequiredProperty(t *testing.T) {
	assert := assert.New(t)

	res := mustValidate(t, mustBuild(t, idSchema), `{}`)
	assert.False(res.Valid)
	assert.Equal(1, len(res.Errors))
	v := res.Errors[0]
	assert.Equal("", v.InstancePath())
	assert.Equal("required", v.Keyword)
	assert.Equal("#/required", v.SchemaPath)
	assert.Equal("id", v.Params["missingProperty"])
	assert.Equal("must have required property 'id'", v.Message)
	assert.Equal("<root> must have required property 'id'", v.Error())
}

func TestWrongPropertyType(t *testing.T) {
	assert := assert.New(t)

	res := mustValidate(t, mustBuild(t, idSchema), `{"id": 42}`)
	assert.False(res.Valid)
	assert.Equal(1, len(res.Errors))
	v := res.Errors[0]
	assert.Equal("/id", v.InstancePath())
	assert.Equal("type", v.Keyword)
	assert.Equal("#/properties/id/type", v.SchemaPath)
	assert.Equal("string", v.Params["type"])
	assert.Equal("number", v.Params["got"])
	assert.Equal("must be string", v.Message)

	res = mustValidate(t, mustBuild(t, idSchema), `{"id": "x-1"}`)
	assert.True(res.Valid)
	assert.Equal(0, len(res.Errors))
}

func TestItemsViolations(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{"items": {"type": "integer", "minimum": 0}}`)
	res := mustValidate(t, s, `[1, -1, "x"]`)
	assert.False(res.Valid)
	if assert.Equal(2, len(res.Errors)) {
		assert.Equal("/1", res.Errors[0].InstancePath())
		assert.Equal("minimum", res.Errors[0].Keyword)
		assert.Equal("must be >= 0", res.Errors[0].Message)
		assert.Equal("/2", res.Errors[1].InstancePath())
		assert.Equal("type", res.Errors[1].Keyword)
	}
}

func TestTypeValidator(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		schema string
		doc    string
		valid  bool
	}{
		{`{"type": "null"}`, `null`, true},
		{`{"type": "null"}`, `0`, false},
		{`{"type": "boolean"}`, `false`, true},
		{`{"type": "boolean"}`, `"false"`, false},
		{`{"type": "number"}`, `-3.88`, true},
		{`{"type": "number"}`, `"3"`, false},
		{`{"type": "integer"}`, `899`, true},
		{`{"type": "integer"}`, `2.0`, true},
		{`{"type": "integer"}`, `6.3`, false},
		{`{"type": "string"}`, `"a string"`, true},
		{`{"type": "string"}`, `[]`, false},
		{`{"type": "array"}`, `[1, "a"]`, true},
		{`{"type": "array"}`, `{}`, false},
		{`{"type": "object"}`, `{"a": 1}`, true},
		{`{"type": "object"}`, `[]`, false},
		{`{"type": ["string", "null"]}`, `null`, true},
		{`{"type": ["string", "null"]}`, `1`, false},
		{`{}`, `{"anything": [1, 2]}`, true},
		{`true`, `1`, true},
		{`false`, `1`, false},
	}
	for _, c := range cases {
		res := mustValidate(t, mustBuild(t, c.schema), c.doc)
		assert.Equal(c.valid, res.Valid, "%s against %s", c.doc, c.schema)
	}

	res := mustValidate(t, mustBuild(t, `{"type": "integer"}`), `6.3`)
	assert.Equal("must be integer", res.Errors[0].Message)
	assert.Equal("number", res.Errors[0].Params["got"])
}

func TestTypeFailureSkipsTypeSpecificKeywords(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{
"type": "string",
"minLength": 3,
"enum": ["abc", "def"]
}`)
	res := mustValidate(t, s, `42`)
	// enum still applies, minLength does not
	if assert.Equal(2, len(res.Errors)) {
		assert.Equal("type", res.Errors[0].Keyword)
		assert.Equal("enum", res.Errors[1].Keyword)
	}

	s = mustBuild(t, `{"type": "object", "required": ["a"]}`)
	res = mustValidate(t, s, `[]`)
	assert.Equal(1, len(res.Errors))
	assert.Equal("type", res.Errors[0].Keyword)
}

func TestEnumAndConst(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{"enum": ["2.0", "2.1", "2.2", 3, {"a": [1]}, null]}`)
	assert.True(mustValidate(t, s, `"2.2"`).Valid)
	assert.True(mustValidate(t, s, `3.0`).Valid)
	assert.True(mustValidate(t, s, `{"a": [1.0]}`).Valid)
	assert.True(mustValidate(t, s, `null`).Valid)
	assert.False(mustValidate(t, s, `2.2`).Valid)
	assert.False(mustValidate(t, s, `{"a": [1], "b": 2}`).Valid)

	res := mustValidate(t, s, `"1.0"`)
	assert.Equal(1, len(res.Errors))
	assert.Equal("enum", res.Errors[0].Keyword)
	assert.Equal("must be equal to one of the allowed values", res.Errors[0].Message)
	assert.Equal(6, len(res.Errors[0].Params["allowedValues"].([]any)))

	s = mustBuild(t, `{"const": "pass"}`)
	assert.True(mustValidate(t, s, `"pass"`).Valid)
	res = mustValidate(t, s, `"fail"`)
	assert.Equal("const", res.Errors[0].Keyword)
	assert.Equal("pass", res.Errors[0].Params["allowedValue"])
}

func TestRequiredReportsEachMissingKey(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{"type": "object", "required": ["a", "b", "c"]}`)
	res := mustValidate(t, s, `{"a": 1}`)
	if assert.Equal(2, len(res.Errors)) {
		assert.Equal("required", res.Errors[0].Keyword)
		assert.Equal("b", res.Errors[0].Params["missingProperty"])
		assert.Equal("required", res.Errors[1].Keyword)
		assert.Equal("c", res.Errors[1].Params["missingProperty"])
	}
}

func TestAllViolationsReportedInOneCall(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{
"type": "object",
"required": ["a", "b", "c", "d"],
"properties": {
  "a": {"type": "string"},
  "b": {"type": "integer", "minimum": 0},
  "c": {"enum": ["x", "y"]}
}
}`)
	res := mustValidate(t, s, `{"c": "z", "b": -1, "a": 1}`)
	assert.False(res.Valid)
	keywords := []string{}
	paths := []string{}
	for _, v := range res.Errors {
		keywords = append(keywords, v.Keyword)
		paths = append(paths, v.InstancePath())
	}
	// schema declaration order, not document order
	assert.Equal([]string{"required", "type", "minimum", "enum"}, keywords)
	assert.Equal([]string{"", "/a", "/b", "/c"}, paths)
}

func TestAdditionalProperties(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{"properties": {"a": {}}, "additionalProperties": false}`)
	res := mustValidate(t, s, `{"z": 1, "a": 1, "b": 2}`)
	if assert.Equal(2, len(res.Errors)) {
		assert.Equal("additionalProperties", res.Errors[0].Keyword)
		assert.Equal("z", res.Errors[0].Params["additionalProperty"])
		assert.Equal("b", res.Errors[1].Params["additionalProperty"])
		assert.Equal("must NOT have additional properties", res.Errors[1].Message)
	}

	// plain maps have no order, their extra keys are visited sorted
	res = s.Validate(map[string]any{"z": 1, "a": 1, "b": 2})
	if assert.Equal(2, len(res.Errors)) {
		assert.Equal("b", res.Errors[0].Params["additionalProperty"])
		assert.Equal("z", res.Errors[1].Params["additionalProperty"])
	}

	s = mustBuild(t, `{"properties": {"a": {}}, "additionalProperties": {"type": "string"}}`)
	res = mustValidate(t, s, `{"a": 1, "x": "ok", "y": 2}`)
	assert.Equal(1, len(res.Errors))
	assert.Equal("/y", res.Errors[0].InstancePath())
	assert.Equal("#/additionalProperties/type", res.Errors[0].SchemaPath)

	s = mustBuild(t, `{"patternProperties": {"^x-": {"type": "string"}}, "additionalProperties": false}`)
	res = mustValidate(t, s, `{"x-note": 1, "other": true}`)
	if assert.Equal(2, len(res.Errors)) {
		assert.Equal("/x-note", res.Errors[0].InstancePath())
		assert.Equal("additionalProperties", res.Errors[1].Keyword)
	}

	s = mustBuild(t, `{"minProperties": 1, "maxProperties": 2}`)
	assert.False(mustValidate(t, s, `{}`).Valid)
	assert.True(mustValidate(t, s, `{"a": 1}`).Valid)
	assert.False(mustValidate(t, s, `{"a": 1, "b": 2, "c": 3}`).Valid)
}

func TestArrayValidator(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{"type": "array", "minItems": 1, "maxItems": 2, "items": {"type": "string"}}`)
	res := mustValidate(t, s, `[]`)
	assert.Equal(1, len(res.Errors))
	assert.Equal("must NOT have fewer than 1 items", res.Errors[0].Message)

	res = mustValidate(t, s, `["a", 1, "c"]`)
	if assert.Equal(2, len(res.Errors)) {
		assert.Equal("maxItems", res.Errors[0].Keyword)
		assert.Equal("/1", res.Errors[1].InstancePath())
	}

	s = mustBuild(t, `{"uniqueItems": true}`)
	assert.True(mustValidate(t, s, `[1, "1", [1]]`).Valid)
	res = mustValidate(t, s, `[{"a": 1}, 2, {"a": 1.0}]`)
	assert.Equal(1, len(res.Errors))
	assert.Equal("must NOT have duplicate items (items ## 2 and 0 are identical)", res.Errors[0].Message)
}

func TestTupleValidator(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{
"type": "array",
"items": [
   {"type": "string"},
   {"type": "object",
    "properties": {
       "abc": {"type": "string"},
       "def": {"type": "number"}
    },
    "required": ["abc"]
   }
],
"additionalItems": {"type": "string"}
}`)
	assert.True(mustValidate(t, s, `["a", {"abc": "x"}, "b", "c"]`).Valid)
	assert.True(mustValidate(t, s, `["a"]`).Valid)

	res := mustValidate(t, s, `[1, {"def": 2}, "b", 3]`)
	paths := []string{}
	for _, v := range res.Errors {
		paths = append(paths, v.InstancePath())
	}
	assert.Equal([]string{"/0", "/1", "/3"}, paths)

	s = mustBuild(t, `{"items": [{"type": "string"}], "additionalItems": false}`)
	res = mustValidate(t, s, `["a", "b"]`)
	assert.Equal(1, len(res.Errors))
	assert.Equal("additionalItems", res.Errors[0].Keyword)
}

func TestNumberValidator(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{
"type": "number",
"maximum": 6000,
"exclusiveMaximum": true,
"minimum": -1980}`)
	assert.True(mustValidate(t, s, `6.3`).Valid)
	assert.True(mustValidate(t, s, `-1980`).Valid)

	res := mustValidate(t, s, `6000`)
	assert.Equal("exclusiveMaximum", res.Errors[0].Keyword)
	assert.Equal("must be < 6000", res.Errors[0].Message)

	res = mustValidate(t, s, `-8888.99`)
	assert.Equal("minimum", res.Errors[0].Keyword)
	assert.Equal("must be >= -1980", res.Errors[0].Message)

	s = mustBuild(t, `{"exclusiveMinimum": 1, "maximum": 21}`)
	assert.False(mustValidate(t, s, `1`).Valid)
	assert.True(mustValidate(t, s, `21`).Valid)
	assert.False(mustValidate(t, s, `21.01`).Valid)
	// numeric keywords ignore other kinds
	assert.True(mustValidate(t, s, `"100"`).Valid)

	s = mustBuild(t, `{"multipleOf": 0.1}`)
	assert.True(mustValidate(t, s, `4.5`).Valid)
	assert.False(mustValidate(t, s, `4.55`).Valid)
}

func TestNumbersBeyondFloat64(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{"type": "number", "minimum": 1}`)
	assert.True(mustValidate(t, s, `1e400`).Valid)
	assert.False(mustValidate(t, s, `-1e400`).Valid)

	s = mustBuild(t, `{"maximum": 10}`)
	res := mustValidate(t, s, `1e400`)
	assert.False(res.Valid)
	assert.Equal("maximum", res.Errors[0].Keyword)

	s = mustBuild(t, `{"type": "integer", "multipleOf": 2}`)
	assert.True(mustValidate(t, s, `1e400`).Valid)
	assert.False(mustValidate(t, s, `1.5e-400`).Valid)

	s = mustBuild(t, `{"enum": [9007199254740993]}`)
	assert.True(mustValidate(t, s, `9007199254740993`).Valid)
	res = mustValidate(t, s, `9007199254740992`)
	assert.False(res.Valid)
	assert.Equal("enum", res.Errors[0].Keyword)

	s = mustBuild(t, `{"const": 0.1}`)
	assert.True(mustValidate(t, s, `0.10`).Valid)
	assert.True(s.Validate(0.1).Valid)
	assert.False(mustValidate(t, s, `0.1000000000000000000001`).Valid)

	s = mustBuild(t, `{"uniqueItems": true}`)
	assert.True(mustValidate(t, s, `[9007199254740993, 9007199254740992]`).Valid)
	assert.False(mustValidate(t, s, `[1e400, 10e399]`).Valid)
}

func TestStringValidator(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{"type": "string", "maxLength": 10, "minLength": 1}`)
	assert.True(mustValidate(t, s, `"a string"`).Valid)
	// length counts characters, not bytes
	assert.True(mustValidate(t, s, `"✅✅✅✅✅✅✅✅✅✅"`).Valid)

	res := mustValidate(t, s, `"a very loooooooooooooooooooooong string"`)
	assert.Equal("must NOT have more than 10 characters", res.Errors[0].Message)

	res = mustValidate(t, s, `""`)
	assert.Equal("must NOT have fewer than 1 characters", res.Errors[0].Message)

	s = mustBuild(t, `{"pattern": "^WCAG-[0-9.]+-[0-9]{3}$", "format": "unregistered-format"}`)
	assert.True(mustValidate(t, s, `"WCAG-1.4.3-001"`).Valid)
	res = mustValidate(t, s, `"finding-1"`)
	if assert.Equal(1, len(res.Errors)) {
		assert.Equal("pattern", res.Errors[0].Keyword)
		assert.Equal(`must match pattern "^WCAG-[0-9.]+-[0-9]{3}$"`, res.Errors[0].Message)
	}

	s = mustBuild(t, `{"format": "date", "pattern": "^2"}`)
	res = mustValidate(t, s, `"1999-02-30"`)
	if assert.Equal(2, len(res.Errors)) {
		assert.Equal("pattern", res.Errors[0].Keyword)
		assert.Equal("format", res.Errors[1].Keyword)
		assert.Equal(`must match format "date"`, res.Errors[1].Message)
	}
}

func TestAllOfValidator(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{
"allOf": [
  {"type": "number", "maximum": 6000},
  {"type": "integer", "minimum": -200}
]
}`)
	assert.True(mustValidate(t, s, `3799`).Valid)

	res := mustValidate(t, s, `9000.5`)
	if assert.Equal(2, len(res.Errors)) {
		assert.Equal("#/allOf/0/maximum", res.Errors[0].SchemaPath)
		assert.Equal("#/allOf/1/type", res.Errors[1].SchemaPath)
	}
}

func TestAnyOfValidator(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{
"anyOf": [
  {"type": "object", "required": ["x", "y"]},
  {"type": "string", "minLength": 5}
]
}`)
	assert.True(mustValidate(t, s, `"hello"`).Valid)
	assert.True(mustValidate(t, s, `{"x": 1, "y": 2}`).Valid)

	// the closest choice is reported before the anyOf violation
	res := mustValidate(t, s, `{}`)
	if assert.Equal(2, len(res.Errors)) {
		assert.Equal("#/anyOf/1/type", res.Errors[0].SchemaPath)
		assert.Equal("anyOf", res.Errors[1].Keyword)
		assert.Equal("must match a schema in anyOf", res.Errors[1].Message)
	}

	// a tie goes to the first declared choice
	res = mustValidate(t, s, `{"x": 1}`)
	if assert.Equal(2, len(res.Errors)) {
		assert.Equal("#/anyOf/0/required", res.Errors[0].SchemaPath)
	}
	res = mustValidate(t, s, `3`)
	if assert.Equal(2, len(res.Errors)) {
		assert.Equal("#/anyOf/0/type", res.Errors[0].SchemaPath)
	}
}

func TestOneOfValidator(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{"oneOf": [{"type": "number"}, {"type": "integer"}]}`)

	assert.True(mustValidate(t, s, `1.5`).Valid)

	res := mustValidate(t, s, `2`)
	if assert.Equal(1, len(res.Errors)) {
		assert.Equal("oneOf", res.Errors[0].Keyword)
		assert.Equal([]int{0, 1}, res.Errors[0].Params["passingSchemas"])
		assert.Equal("must match exactly one schema in oneOf, but matches 2", res.Errors[0].Message)
	}

	res = mustValidate(t, s, `"x"`)
	if assert.Equal(3, len(res.Errors)) {
		assert.Equal("#/oneOf/0/type", res.Errors[0].SchemaPath)
		assert.Equal("#/oneOf/1/type", res.Errors[1].SchemaPath)
		assert.Equal("oneOf", res.Errors[2].Keyword)
		assert.Equal("must match exactly one schema in oneOf", res.Errors[2].Message)
	}
}

func TestNotValidator(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{"not": "number"}`)
	assert.True(mustValidate(t, s, `true`).Valid)
	assert.True(mustValidate(t, s, `{}`).Valid)

	res := mustValidate(t, s, `-3.88`)
	assert.Equal(1, len(res.Errors))
	assert.Equal("must NOT be valid", res.Errors[0].Message)
}

func TestRecursiveRef(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{
"$defs": {
  "node": {
    "type": "object",
    "properties": {
      "value": {"type": "integer"},
      "children": {"type": "array", "items": {"$ref": "#/$defs/node"}}
    }
  }
},
"$ref": "#/$defs/node"
}`)
	assert.True(mustValidate(t, s, `{"value": 1, "children": [{"value": 2, "children": []}]}`).Valid)

	res := mustValidate(t, s, `{"value": 1, "children": [{"value": 2}, {"value": "x", "children": [{"value": 1.5}]}]}`)
	if assert.Equal(2, len(res.Errors)) {
		assert.Equal("/children/1/value", res.Errors[0].InstancePath())
		assert.Equal("#/$defs/node/properties/value/type", res.Errors[0].SchemaPath)
		assert.Equal("/children/1/children/0/value", res.Errors[1].InstancePath())
	}

	// a reference loop which consumes no data terminates
	s = mustBuild(t, `{"allOf": [{"$ref": "#"}], "type": "string"}`)
	res = mustValidate(t, s, `1`)
	assert.False(res.Valid)
}

func TestInstancePathEscaping(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{"properties": {"a/b": {"properties": {"c~d": {"type": "string"}}}}}`)
	res := mustValidate(t, s, `{"a/b": {"c~d": 1}}`)
	assert.Equal("/a~1b/c~0d", res.Errors[0].InstancePath())
	assert.Equal([]string{"a/b", "c~d"}, res.Errors[0].Path)
}

func TestDocumentParseError(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, idSchema)
	_, err := ValidateBytes(s, []byte(`{"id": `))
	assert.NotNil(err)
	_, ok := err.(*DocumentParseError)
	assert.True(ok)

	_, err = ValidateBytes(s, []byte(`{} {}`))
	assert.NotNil(err)

	_, err = ValidateBytes(s, []byte(``))
	assert.NotNil(err)
}

func TestValidationIsIdempotent(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{
"type": "object",
"properties": {
  "a": {"type": "string"},
  "b": {"anyOf": [{"type": "string"}, {"type": "array", "items": {"type": "integer"}}]}
},
"additionalProperties": false
}`)
	doc, err := DecodeOrdered([]byte(`{"a": 1, "b": [1, "x"], "c": null, "d": true}`))
	assert.Nil(err)

	first := Validate(s, doc)
	second := Validate(s, doc)
	assert.Equal(first, second)
	assert.Equal(5, len(first.Errors))
}

func TestConcurrentValidation(t *testing.T) {
	assert := assert.New(t)

	s := mustBuild(t, `{"items": {"type": "integer", "minimum": 0}}`)
	expected := s.Validate([]any{1, -1, "x"})

	results := make([]*ValidationResult, 16)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Validate([]any{1, -1, "x"})
		}(i)
	}
	wg.Wait()
	for _, res := range results {
		assert.Equal(expected, res)
	}
}

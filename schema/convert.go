package crochetschema

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// location addresses a schema fragment: the named document it lives in
// ("" is the document being built) and a JSON pointer inside it.
type location struct {
	doc     string
	pointer []string
}

func (loc location) child(tokens ...string) location {
	pointer := make([]string, 0, len(loc.pointer)+len(tokens))
	pointer = append(pointer, loc.pointer...)
	pointer = append(pointer, tokens...)
	return location{doc: loc.doc, pointer: pointer}
}

func (loc location) String() string {
	var sb strings.Builder
	sb.WriteString(loc.doc)
	sb.WriteString("#")
	for _, token := range loc.pointer {
		sb.WriteString("/")
		sb.WriteString(escapePointerToken(token))
	}
	return sb.String()
}

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

func escapePointerToken(token string) string {
	return pointerEscaper.Replace(token)
}

// parsePointer splits a URI fragment holding a JSON pointer into
// unescaped tokens. The empty fragment addresses the whole document.
func parsePointer(fragment string) ([]string, bool) {
	fragment, err := url.PathUnescape(fragment)
	if err != nil {
		return nil, false
	}
	if fragment == "" {
		return nil, true
	}
	if !strings.HasPrefix(fragment, "/") {
		return nil, false
	}
	tokens := strings.Split(fragment[1:], "/")
	for i, token := range tokens {
		tokens[i] = pointerUnescaper.Replace(token)
	}
	return tokens, true
}

func walkPointer(doc any, tokens []string) (any, bool) {
	current := doc
	for _, token := range tokens {
		switch v := current.(type) {
		case *Mapping:
			next, ok := v.Get(token)
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(v) || strconv.Itoa(idx) != token {
				return nil, false
			}
			current = v[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// normalizeDocument copies a raw schema document into the shape the
// builder works on: objects become *Mapping, lists become []any.
func normalizeDocument(src any, loc location) (any, error) {
	switch v := src.(type) {
	case *Mapping:
		m := NewMapping()
		for _, k := range v.Keys() {
			elem, _ := v.Get(k)
			newElem, err := normalizeDocument(elem, loc.child(k))
			if err != nil {
				return nil, err
			}
			m.Set(k, newElem)
		}
		return m, nil
	case map[string]any:
		return normalizeDocument(MappingFromMap(v), loc)
	case map[any]any:
		strMap := make(map[string]any, len(v))
		for k, elem := range v {
			sk, ok := k.(string)
			if !ok {
				return nil, NewCompileError("not string key", loc.child(fmt.Sprint(k)))
			}
			strMap[sk] = elem
		}
		return normalizeDocument(MappingFromMap(strMap), loc)
	case []any:
		list := make([]any, 0, len(v))
		for i, elem := range v {
			newElem, err := normalizeDocument(elem, loc.child(fmt.Sprint(i)))
			if err != nil {
				return nil, err
			}
			list = append(list, newElem)
		}
		return list, nil
	case []string:
		list := make([]any, 0, len(v))
		for _, elem := range v {
			list = append(list, elem)
		}
		return list, nil
	case []map[string]any:
		list := make([]any, 0, len(v))
		for _, elem := range v {
			list = append(list, elem)
		}
		return normalizeDocument(list, loc)
	default:
		return src, nil
	}
}

// util functions, each returns a nil/false value with no error when the
// attribute is absent

func convertAttrInt(node *Mapping, attrName string, loc location) (*int, error) {
	v, ok := node.Get(attrName)
	if !ok {
		return nil, nil
	}
	f, isNumber := toFloat(v)
	if !isNumber || !isIntegral(v) || f < 0 {
		return nil, NewCompileError(fmt.Sprintf("%s must be a non-negative integer", attrName), loc.child(attrName))
	}
	n := int(f)
	return &n, nil
}

func convertAttrFloat(node *Mapping, attrName string, loc location) (*float64, error) {
	v, ok := node.Get(attrName)
	if !ok {
		return nil, nil
	}
	f, isNumber := toFloat(v)
	if !isNumber {
		return nil, NewCompileError(fmt.Sprintf("%s must be a number", attrName), loc.child(attrName))
	}
	return &f, nil
}

func convertAttrBool(node *Mapping, attrName string, loc location) (bool, bool, error) {
	v, ok := node.Get(attrName)
	if !ok {
		return false, false, nil
	}
	bv, isBool := v.(bool)
	if !isBool {
		return false, false, NewCompileError(fmt.Sprintf("%s must be a boolean", attrName), loc.child(attrName))
	}
	return bv, true, nil
}

func convertAttrString(node *Mapping, attrName string, loc location) (string, bool, error) {
	v, ok := node.Get(attrName)
	if !ok {
		return "", false, nil
	}
	sv, isString := v.(string)
	if !isString {
		return "", false, NewCompileError(fmt.Sprintf("%s must be string", attrName), loc.child(attrName))
	}
	return sv, true, nil
}

func convertAttrList(node *Mapping, attrName string, loc location) ([]any, bool, error) {
	v, ok := node.Get(attrName)
	if !ok {
		return nil, false, nil
	}
	list, isList := v.([]any)
	if !isList {
		return nil, false, NewCompileError(fmt.Sprintf("%s must be a list", attrName), loc.child(attrName))
	}
	return list, true, nil
}

func convertAttrMap(node *Mapping, attrName string, loc location) (*Mapping, bool, error) {
	v, ok := node.Get(attrName)
	if !ok {
		return nil, false, nil
	}
	m, isMap := v.(*Mapping)
	if !isMap {
		return nil, false, NewCompileError(fmt.Sprintf("%s must be an object", attrName), loc.child(attrName))
	}
	return m, true, nil
}

func convertAttrListOfString(node *Mapping, attrName string, loc location) ([]string, bool, error) {
	list, ok, err := convertAttrList(node, attrName, loc)
	if err != nil || !ok {
		return nil, ok, err
	}
	arr := make([]string, 0, len(list))
	for i, item := range list {
		strItem, isString := item.(string)
		if !isString {
			return nil, false, NewCompileError(fmt.Sprintf("%s is not a list of strings", attrName), loc.child(attrName, fmt.Sprint(i)))
		}
		arr = append(arr, strItem)
	}
	return arr, true, nil
}

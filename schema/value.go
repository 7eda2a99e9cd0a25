package crochetschema

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
)

// value kinds, named after the JSON types
const (
	kindNull    = "null"
	kindBoolean = "boolean"
	kindString  = "string"
	kindNumber  = "number"
	kindInteger = "integer"
	kindArray   = "array"
	kindObject  = "object"
	kindUnknown = "unknown"
)

var knownTypes = []string{kindNull, kindBoolean, kindString, kindNumber, kindInteger, kindArray, kindObject}

func stringInList(a string, candidates ...string) bool {
	for _, ca := range candidates {
		if ca == a {
			return true
		}
	}
	return false
}

func kindOf(data any) string {
	switch data.(type) {
	case nil:
		return kindNull
	case bool:
		return kindBoolean
	case string:
		return kindString
	case json.Number, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return kindNumber
	case []any:
		return kindArray
	case *Mapping, map[string]any:
		return kindObject
	default:
		return kindUnknown
	}
}

func toFloat(data any) (float64, bool) {
	switch n := data.(type) {
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, true
		}
		// out of float64 range, saturates to ±Inf or 0
		v, ok := numberValue(n)
		if !ok {
			return 0, false
		}
		f, _ := v.Float64()
		return f, true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// isIntegral reports whether a number has no fractional part, so 1.0
// counts as an integer.
func isIntegral(data any) bool {
	switch n := data.(type) {
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return true
		}
		v, ok := numberValue(n)
		return ok && v.IsInt()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	f, ok := toFloat(data)
	if !ok || math.IsInf(f, 0) || math.IsNaN(f) {
		return false
	}
	return f == math.Trunc(f)
}

const numberPrec = 512

// numberValue widens a number to a big.Float. Decimal literals keep
// their digits beyond float64, binary floats go through their shortest
// decimal form so that 0.1 and json.Number("0.1") compare equal.
func numberValue(data any) (*big.Float, bool) {
	var literal string
	switch n := data.(type) {
	case json.Number:
		literal = string(n)
	case int:
		return new(big.Float).SetInt64(int64(n)), true
	case int8:
		return new(big.Float).SetInt64(int64(n)), true
	case int16:
		return new(big.Float).SetInt64(int64(n)), true
	case int32:
		return new(big.Float).SetInt64(int64(n)), true
	case int64:
		return new(big.Float).SetInt64(n), true
	case uint:
		return new(big.Float).SetUint64(uint64(n)), true
	case uint8:
		return new(big.Float).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Float).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Float).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Float).SetUint64(n), true
	case float32:
		if math.IsNaN(float64(n)) {
			return nil, false
		}
		literal = strconv.FormatFloat(float64(n), 'g', -1, 32)
	case float64:
		if math.IsNaN(n) {
			return nil, false
		}
		literal = strconv.FormatFloat(n, 'g', -1, 64)
	default:
		return nil, false
	}
	v, ok := new(big.Float).SetPrec(numberPrec).SetString(literal)
	return v, ok
}

// compareNumbers returns -1, 0 or +1, ok is false for non numbers.
func compareNumbers(a, b any) (int, bool) {
	va, ok := numberValue(a)
	if !ok {
		return 0, false
	}
	vb, ok := numberValue(b)
	if !ok {
		return 0, false
	}
	return va.Cmp(vb), true
}

func isMultipleOf(data any, divisor float64) bool {
	v, _ := toFloat(data)
	if q := v / divisor; !math.IsInf(q, 0) {
		return math.Abs(q-math.Round(q)) <= 1e-9
	}
	// the quotient left float64 range, divide at full precision
	a, ok := numberValue(data)
	if !ok {
		return false
	}
	b, ok := numberValue(divisor)
	if !ok {
		return false
	}
	return new(big.Float).SetPrec(numberPrec).Quo(a, b).IsInt()
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// objectView exposes either object representation as a Mapping. Plain
// maps have no declaration order so their keys are sorted.
func objectView(data any) (*Mapping, bool) {
	switch obj := data.(type) {
	case *Mapping:
		return obj, true
	case map[string]any:
		return MappingFromMap(obj), true
	}
	return nil, false
}

// valueEqual compares two document values structurally, numbers by
// numeric value.
func valueEqual(a, b any) bool {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case kindNull:
		return true
	case kindBoolean:
		return a.(bool) == b.(bool)
	case kindString:
		return a.(string) == b.(string)
	case kindNumber:
		if na, ok := a.(json.Number); ok {
			if nb, ok := b.(json.Number); ok && na == nb {
				return true
			}
		}
		c, ok := compareNumbers(a, b)
		return ok && c == 0
	case kindArray:
		arrA, arrB := a.([]any), b.([]any)
		if len(arrA) != len(arrB) {
			return false
		}
		for i := range arrA {
			if !valueEqual(arrA[i], arrB[i]) {
				return false
			}
		}
		return true
	case kindObject:
		objA, _ := objectView(a)
		objB, _ := objectView(b)
		if objA.Len() != objB.Len() {
			return false
		}
		for _, k := range objA.Keys() {
			vb, found := objB.Get(k)
			if !found {
				return false
			}
			va, _ := objA.Get(k)
			if !valueEqual(va, vb) {
				return false
			}
		}
		return true
	}
	return false
}

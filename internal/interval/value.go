package interval

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Kind enumerates the value variants a payload may hold.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an immutable tagged variant. The zero Value is null.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	m    map[string]Value
	l    []Value
}

func Null() Value { return Value{} }
func Number(v float64) Value { return Value{kind: KindNumber, num: v} }
func String(v string) Value { return Value{kind: KindString, str: v} }
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }
func Int(v int) Value { return Number(float64(v)) }
func List(items ...Value) Value { return Value{kind: KindList, l: slices.Clone(items)} }

// Map copies m into a map value.
func Map(m map[string]Value) Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return Value{kind: KindMap, m: out}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsMap returns a copy of the entries of a map value.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	out := make(map[string]Value, len(v.m))
	for k, item := range v.m {
		out[k] = item
	}
	return out, true
}

// AsList returns a copy of the items of a list value.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return slices.Clone(v.l), true
}

// Len is the entry count for maps and lists and zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindMap:
		return len(v.m)
	case KindList:
		return len(v.l)
	default:
		return 0
	}
}

// Keys returns the sorted keys of a map value.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	return sortedKeys(v.m)
}

// Get looks up a key in a map value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	item, ok := v.m[key]
	return item, ok
}

// Index returns the i-th item of a list value.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindList || i < 0 || i >= len(v.l) {
		return Value{}, false
	}
	return v.l[i], true
}

// Equal reports structural equality. NaN numbers compare equal to each other.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindNumber:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, item := range v.m {
			other, ok := o.m[k]
			if !ok || !item.Equal(other) {
				return false
			}
		}
		return true
	case KindList:
		return slices.EqualFunc(v.l, o.l, Value.Equal)
	}
	return false
}

// Key renders a canonical fingerprint: structurally equal values share a key.
func (v Value) Key() string {
	var sb strings.Builder
	v.writeKey(&sb)
	return sb.String()
}

func (v Value) writeKey(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("n")
	case KindNumber:
		n := v.num
		if n == 0 {
			n = 0 // -0 and +0 are Equal
		}
		sb.WriteString("f")
		sb.WriteString(strconv.FormatFloat(n, 'g', -1, 64))
	case KindString:
		sb.WriteString("s")
		sb.WriteString(strconv.Quote(v.str))
	case KindBool:
		if v.b {
			sb.WriteString("t")
		} else {
			sb.WriteString("F")
		}
	case KindMap:
		sb.WriteString("{")
		for i, k := range sortedKeys(v.m) {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			v.m[k].writeKey(sb)
		}
		sb.WriteString("}")
	case KindList:
		sb.WriteString("[")
		for i, item := range v.l {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.writeKey(sb)
		}
		sb.WriteString("]")
	}
}

// Interface converts the value back to plain Go data: nil, float64, string,
// bool, map[string]any or []any.
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Interface()
		}
		return out
	case KindList:
		out := make([]any, len(v.l))
		for i, item := range v.l {
			out[i] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) String() string {
	return v.Key()
}

// MarshalJSON writes the plain JSON form of the value.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return nil, fmt.Errorf("value: cannot encode non-finite number %v", v.num)
	}
	return json.Marshal(v.Interface())
}

// UnmarshalJSON reads any JSON document into a value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ValueOf converts plain Go data into a Value. Supported inputs are nil,
// bools, integer and float kinds, strings, Values, maps keyed by string and
// slices of any supported type.
func ValueOf(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, invalid("value", "invalid number %q", x.String())
		}
		return Number(f), nil
	case map[string]Value:
		return Map(x), nil
	case map[string]any:
		out := make(map[string]Value, len(x))
		for k, item := range x {
			parsed, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			out[k] = parsed
		}
		return Value{kind: KindMap, m: out}, nil
	case []any:
		out := make([]Value, len(x))
		for i, item := range x {
			parsed, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			out[i] = parsed
		}
		return Value{kind: KindList, l: out}, nil
	}
	return reflectValue(reflect.ValueOf(raw))
}

func reflectValue(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Slice, reflect.Array:
		out := make([]Value, rv.Len())
		for i := range out {
			parsed, err := ValueOf(rv.Index(i).Interface())
			if err != nil {
				return Value{}, err
			}
			out[i] = parsed
		}
		return Value{kind: KindList, l: out}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, invalid("value", "map keys must be strings, got %s", rv.Type().Key())
		}
		out := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			parsed, err := ValueOf(iter.Value().Interface())
			if err != nil {
				return Value{}, err
			}
			out[iter.Key().String()] = parsed
		}
		return Value{kind: KindMap, m: out}, nil
	case reflect.Invalid:
		return Null(), nil
	}
	return Value{}, invalid("value", "unsupported type %s", rv.Type())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

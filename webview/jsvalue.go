package webview

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// JSValueType enumerates the variants a JSValue can hold
type JSValueType int8

const (
	JSNull JSValueType = iota
	JSBoolean
	JSInteger
	JSDouble
	JSString
	JSArray
	JSObject
)

// JSValue is a value exchanged with page-side script. It holds exactly
// one of the JSValueType variants and converts to and from JSON for
// transport to the engine.
type JSValue struct {
	kind JSValueType
	b    bool
	i    int
	d    float64
	s    string
	a    []JSValue
	o    map[string]JSValue
}

// JSArguments is an argument list for calling a script side function
type JSArguments []JSValue

// NullValue returns the null JSValue
func NullValue() JSValue {
	return JSValue{kind: JSNull}
}

// BoolValue wraps a bool
func BoolValue(v bool) JSValue {
	return JSValue{kind: JSBoolean, b: v}
}

// IntValue wraps an integer
func IntValue(v int) JSValue {
	return JSValue{kind: JSInteger, i: v}
}

// DoubleValue wraps a float
func DoubleValue(v float64) JSValue {
	return JSValue{kind: JSDouble, d: v}
}

// StringValue wraps a string
func StringValue(v string) JSValue {
	return JSValue{kind: JSString, s: v}
}

// ArrayValue wraps a list of values
func ArrayValue(values ...JSValue) JSValue {
	return JSValue{kind: JSArray, a: values}
}

// ObjectValue wraps a set of named values
func ObjectValue(fields map[string]JSValue) JSValue {
	return JSValue{kind: JSObject, o: fields}
}

// ValueOf converts a plain Go value, such as a decoded JSON result,
// into a JSValue. Unsupported types become null.
func ValueOf(raw interface{}) JSValue {
	if v, ok := raw.(JSValue); ok {
		return v
	}
	return fromRaw(raw)
}

// Type returns which variant this value holds
func (v JSValue) Type() JSValueType {
	return v.kind
}

// IsNull returns true for the null value
func (v JSValue) IsNull() bool {
	return v.kind == JSNull
}

// ToBool coerces to a bool using script truthiness rules
func (v JSValue) ToBool() bool {
	switch v.kind {
	case JSBoolean:
		return v.b
	case JSInteger:
		return v.i != 0
	case JSDouble:
		return v.d != 0
	case JSString:
		return v.s != ""
	case JSArray, JSObject:
		return true
	}
	return false
}

// ToInteger coerces to an int, truncating doubles and parsing strings
func (v JSValue) ToInteger() int {
	switch v.kind {
	case JSBoolean:
		if v.b {
			return 1
		}
	case JSInteger:
		return v.i
	case JSDouble:
		return int(v.d)
	case JSString:
		i, _ := strconv.Atoi(v.s)
		return i
	}
	return 0
}

// ToDouble coerces to a float64
func (v JSValue) ToDouble() float64 {
	switch v.kind {
	case JSBoolean:
		if v.b {
			return 1
		}
	case JSInteger:
		return float64(v.i)
	case JSDouble:
		return v.d
	case JSString:
		d, _ := strconv.ParseFloat(v.s, 64)
		return d
	}
	return 0
}

// ToString returns the string variant or a printed form of the value
func (v JSValue) ToString() string {
	switch v.kind {
	case JSNull:
		return "null"
	case JSBoolean:
		return strconv.FormatBool(v.b)
	case JSInteger:
		return strconv.Itoa(v.i)
	case JSDouble:
		return strconv.FormatFloat(v.d, 'g', -1, 64)
	case JSString:
		return v.s
	}
	data, _ := json.Marshal(v)
	return string(data)
}

// ToArray returns the array variant, nil for any other variant
func (v JSValue) ToArray() []JSValue {
	return v.a
}

// ToObject returns the object variant, nil for any other variant
func (v JSValue) ToObject() map[string]JSValue {
	return v.o
}

// MarshalJSON encodes the value as its JSON equivalent
func (v JSValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case JSNull:
		return []byte("null"), nil
	case JSBoolean:
		return json.Marshal(v.b)
	case JSInteger:
		return json.Marshal(v.i)
	case JSDouble:
		return json.Marshal(v.d)
	case JSString:
		return json.Marshal(v.s)
	case JSArray:
		if v.a == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.a)
	case JSObject:
		if v.o == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.o)
	}
	return nil, errors.Errorf("unknown JSValue type %d", v.kind)
}

// UnmarshalJSON decodes any JSON value. Numbers without a fractional
// part become the integer variant.
func (v *JSValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return errors.Wrap(err, "decoding JSValue")
	}
	*v = fromRaw(raw)
	return nil
}

func fromRaw(raw interface{}) JSValue {
	switch t := raw.(type) {
	case nil:
		return NullValue()
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(t)
	case int64:
		return IntValue(int(t))
	case float64:
		if float64(int(t)) == t {
			return IntValue(int(t))
		}
		return DoubleValue(t)
	case json.Number:
		if i, err := strconv.Atoi(t.String()); err == nil {
			return IntValue(i)
		}
		d, _ := t.Float64()
		return DoubleValue(d)
	case string:
		return StringValue(t)
	case []interface{}:
		values := make([]JSValue, len(t))
		for i, e := range t {
			values[i] = fromRaw(e)
		}
		return ArrayValue(values...)
	case map[string]interface{}:
		fields := make(map[string]JSValue, len(t))
		for k, e := range t {
			fields[k] = fromRaw(e)
		}
		return ObjectValue(fields)
	}
	return NullValue()
}

package webview_test

import (
	"encoding/json"
	"testing"

	"gitlab.com/offview/webview"
)

func TestJSValueMarshal(t *testing.T) {
	var inputs = []struct {
		in       webview.JSValue
		expected string
	}{
		{
			webview.NullValue(),
			"null",
		},
		{
			webview.BoolValue(true),
			"true",
		},
		{
			webview.IntValue(-42),
			"-42",
		},
		{
			webview.DoubleValue(0.5),
			"0.5",
		},
		{
			webview.StringValue("hi \"there\""),
			"\"hi \\\"there\\\"\"",
		},
		{
			webview.ArrayValue(webview.IntValue(1), webview.StringValue("two")),
			"[1,\"two\"]",
		},
		{
			webview.ArrayValue(),
			"[]",
		},
		{
			webview.ObjectValue(map[string]webview.JSValue{"a": webview.BoolValue(false)}),
			"{\"a\":false}",
		},
	}
	for _, in := range inputs {
		data, err := json.Marshal(in.in)
		if err != nil {
			t.Fatalf("error marshaling %v: %s\n", in.in, err)
		}
		if string(data) != in.expected {
			t.Fatalf("%s did not match %s\n", string(data), in.expected)
		}
	}
}

func TestJSValueUnmarshal(t *testing.T) {
	var inputs = []struct {
		in       string
		expected webview.JSValueType
	}{
		{"null", webview.JSNull},
		{"false", webview.JSBoolean},
		{"12", webview.JSInteger},
		{"12.25", webview.JSDouble},
		{"\"str\"", webview.JSString},
		{"[1,2,3]", webview.JSArray},
		{"{\"k\":\"v\"}", webview.JSObject},
	}
	for _, in := range inputs {
		var v webview.JSValue
		if err := json.Unmarshal([]byte(in.in), &v); err != nil {
			t.Fatalf("error unmarshaling %s: %s\n", in.in, err)
		}
		if v.Type() != in.expected {
			t.Fatalf("type %v did not match %v for %s\n", v.Type(), in.expected, in.in)
		}
	}
}

func TestJSValueRoundTrip(t *testing.T) {
	in := webview.ObjectValue(map[string]webview.JSValue{
		"name":  webview.StringValue("offview"),
		"count": webview.IntValue(3),
		"tags":  webview.ArrayValue(webview.StringValue("a"), webview.StringValue("b")),
	})
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal error: %s\n", err)
	}
	var out webview.JSValue
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal error: %s\n", err)
	}
	obj := out.ToObject()
	if obj == nil {
		t.Fatalf("expected object, got %v\n", out.Type())
	}
	if obj["name"].ToString() != "offview" {
		t.Fatalf("name did not survive round trip: %s\n", obj["name"].ToString())
	}
	if obj["count"].ToInteger() != 3 {
		t.Fatalf("count did not survive round trip: %d\n", obj["count"].ToInteger())
	}
	if len(obj["tags"].ToArray()) != 2 {
		t.Fatalf("tags did not survive round trip\n")
	}
}

func TestJSValueCoercion(t *testing.T) {
	if !webview.StringValue("x").ToBool() {
		t.Fatalf("non empty string should be truthy\n")
	}
	if webview.IntValue(0).ToBool() {
		t.Fatalf("zero should be falsy\n")
	}
	if webview.DoubleValue(2.9).ToInteger() != 2 {
		t.Fatalf("double should truncate to int\n")
	}
	if webview.StringValue("17").ToInteger() != 17 {
		t.Fatalf("numeric string should parse to int\n")
	}
	if webview.NullValue().ToString() != "null" {
		t.Fatalf("null should print as null\n")
	}
}

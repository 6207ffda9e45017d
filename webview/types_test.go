package webview_test

import (
	"testing"

	"gitlab.com/offview/webview"
)

func TestRectUnion(t *testing.T) {
	var inputs = []struct {
		a        webview.Rect
		b        webview.Rect
		expected webview.Rect
	}{
		{
			webview.Rect{},
			webview.Rect{X: 5, Y: 5, Width: 10, Height: 10},
			webview.Rect{X: 5, Y: 5, Width: 10, Height: 10},
		},
		{
			webview.Rect{X: 0, Y: 0, Width: 10, Height: 10},
			webview.Rect{},
			webview.Rect{X: 0, Y: 0, Width: 10, Height: 10},
		},
		{
			webview.Rect{X: 0, Y: 0, Width: 10, Height: 10},
			webview.Rect{X: 20, Y: 20, Width: 5, Height: 5},
			webview.Rect{X: 0, Y: 0, Width: 25, Height: 25},
		},
		{
			webview.Rect{X: 5, Y: 5, Width: 10, Height: 10},
			webview.Rect{X: 0, Y: 8, Width: 10, Height: 2},
			webview.Rect{X: 0, Y: 5, Width: 15, Height: 10},
		},
	}
	for _, in := range inputs {
		got := in.a.Union(in.b)
		if got != in.expected {
			t.Fatalf("%+v union %+v gave %+v expected %+v\n", in.a, in.b, got, in.expected)
		}
	}
}

func TestHeaderDefinitionCopy(t *testing.T) {
	def := webview.HeaderDefinition{"X-Test": "1"}
	cp := def.Copy()
	cp["X-Test"] = "2"
	if def["X-Test"] != "1" {
		t.Fatalf("copy should not share storage with the original\n")
	}
	if webview.HeaderDefinition(nil).Copy() != nil {
		t.Fatalf("nil copy should stay nil\n")
	}
}

func TestViewIDsUnique(t *testing.T) {
	a := webview.GetViewID()
	b := webview.GetViewID()
	if a == b {
		t.Fatalf("view ids should be unique, got %d twice\n", a)
	}
}

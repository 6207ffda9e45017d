package chrome

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
	"github.com/tidwall/gjson"
	"gitlab.com/offview/webview"
)

// enough of a document environment for the bootstrap to run outside an
// engine
const domStubs = `
window.__listeners = {};
window.__observers = [];
window.addEventListener = function (name, fn) { window.__listeners[name] = fn; };
window.document = {
  head: {},
  title: 'Start Page',
  querySelector: function () { return window.__titleEl || null; }
};
window.MutationObserver = function (fn) {
  this.fn = fn;
  this.observe = function () { window.__observers.push(this); };
  this.disconnect = function () {};
};
`

func newBridgeVM(t *testing.T, book *objectBook, posted *[]string) *goja.Runtime {
	vm := goja.New()
	new(require.Registry).Enable(vm)
	console.Enable(vm)

	vm.Set("window", vm.GlobalObject())
	vm.Set(bridgeBindingName, func(payload string) {
		*posted = append(*posted, payload)
	})

	for _, src := range []string{domStubs, bridgeBootstrap(), book.script()} {
		if _, err := vm.RunString(src); err != nil {
			t.Fatalf("error running bridge script: %s\n%s\n", err, src)
		}
	}
	return vm
}

func TestBridgeInstallsObjects(t *testing.T) {
	book := newObjectBook()
	if err := book.createObject("app"); err != nil {
		t.Fatalf("error creating object: %s\n", err)
	}
	if err := book.setProperty("app", "version", []byte(`"1.2"`)); err != nil {
		t.Fatalf("error setting property: %s\n", err)
	}
	if err := book.setProperty("app", "limits", []byte(`{"depth":[1,2,3]}`)); err != nil {
		t.Fatalf("error setting property: %s\n", err)
	}
	if err := book.setCallback("app", "onSave"); err != nil {
		t.Fatalf("error setting callback: %s\n", err)
	}

	posted := make([]string, 0)
	vm := newBridgeVM(t, book, &posted)

	version, err := vm.RunString(`window["app"]["version"]`)
	if err != nil {
		t.Fatalf("error reading property: %s\n", err)
	}
	if version.Export() != "1.2" {
		t.Fatalf("expected version 1.2 got %v\n", version.Export())
	}

	depth, err := vm.RunString(`window["app"]["limits"]["depth"][2]`)
	if err != nil {
		t.Fatalf("error reading nested property: %s\n", err)
	}
	if depth.ToInteger() != 3 {
		t.Fatalf("expected 3 got %v\n", depth.Export())
	}

	if _, err := vm.RunString(`window["app"]["onSave"]("draft", 7, true)`); err != nil {
		t.Fatalf("error invoking callback: %s\n", err)
	}
	if len(posted) != 1 {
		t.Fatalf("expected 1 posted payload got %d\n", len(posted))
	}

	object, callback, args, err := parseBridgePayload(posted[0])
	if err != nil {
		t.Fatalf("error parsing payload: %s\n", err)
	}
	if object != "app" || callback != "onSave" {
		t.Fatalf("payload misrouted: %s.%s\n", object, callback)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args got %d\n", len(args))
	}
	if args[0].ToString() != "draft" || args[1].ToInteger() != 7 || !args[2].ToBool() {
		t.Fatalf("args did not round trip: %+v\n", args)
	}
}

func TestBridgeAwkwardNames(t *testing.T) {
	book := newObjectBook()
	name := `we"ird.obj`
	if err := book.createObject(name); err != nil {
		t.Fatalf("error creating object: %s\n", err)
	}
	if err := book.setProperty(name, "sp ace", []byte(`"line\nbreak"`)); err != nil {
		t.Fatalf("error setting property: %s\n", err)
	}
	if err := book.setCallback(name, "on.fire"); err != nil {
		t.Fatalf("error setting callback: %s\n", err)
	}

	posted := make([]string, 0)
	vm := newBridgeVM(t, book, &posted)

	value, err := vm.RunString(`window['we"ird.obj']['sp ace']`)
	if err != nil {
		t.Fatalf("error reading property: %s\n", err)
	}
	if value.Export() != "line\nbreak" {
		t.Fatalf("property value mangled: %q\n", value.Export())
	}

	if _, err := vm.RunString(`window['we"ird.obj']['on.fire']()`); err != nil {
		t.Fatalf("error invoking callback: %s\n", err)
	}
	object, callback, _, err := parseBridgePayload(posted[0])
	if err != nil {
		t.Fatalf("error parsing payload: %s\n", err)
	}
	if object != name || callback != "on.fire" {
		t.Fatalf("awkward names mangled: %s / %s\n", object, callback)
	}
}

func TestBridgeTitleReporting(t *testing.T) {
	posted := make([]string, 0)
	vm := newBridgeVM(t, newObjectBook(), &posted)

	if _, err := vm.RunString(`window.__listeners['DOMContentLoaded']()`); err != nil {
		t.Fatalf("error firing document ready: %s\n", err)
	}
	if len(posted) != 1 {
		t.Fatalf("expected a title payload got %d\n", len(posted))
	}

	object, callback, args, err := parseBridgePayload(posted[0])
	if err != nil {
		t.Fatalf("error parsing payload: %s\n", err)
	}
	if object != internalObjectName || callback != internalTitleCallback {
		t.Fatalf("title payload misrouted: %s.%s\n", object, callback)
	}
	if len(args) != 1 || args[0].ToString() != "Start Page" {
		t.Fatalf("title did not round trip: %+v\n", args)
	}
}

func TestBridgeTitleElementCreatedLate(t *testing.T) {
	posted := make([]string, 0)
	vm := newBridgeVM(t, newObjectBook(), &posted)

	// no title element at document ready, the head gets watched instead
	if _, err := vm.RunString(`window.__listeners['DOMContentLoaded']()`); err != nil {
		t.Fatalf("error firing document ready: %s\n", err)
	}
	if len(posted) != 1 {
		t.Fatalf("expected the initial title payload got %d\n", len(posted))
	}

	if _, err := vm.RunString(`
		window.__titleEl = {};
		window.document.title = 'Later';
		window.__observers[0].fn();
	`); err != nil {
		t.Fatalf("error simulating a late title element: %s\n", err)
	}
	if len(posted) != 2 {
		t.Fatalf("expected a payload for the late title got %d\n", len(posted))
	}
	_, callback, args, err := parseBridgePayload(posted[1])
	if err != nil {
		t.Fatalf("error parsing payload: %s\n", err)
	}
	if callback != internalTitleCallback {
		t.Fatalf("late title payload misrouted: %s\n", callback)
	}
	if len(args) != 1 || args[0].ToString() != "Later" {
		t.Fatalf("late title did not round trip: %+v\n", args)
	}
}

func TestBridgeBootstrapRunsOnce(t *testing.T) {
	posted := make([]string, 0)
	vm := newBridgeVM(t, newObjectBook(), &posted)

	// a second install must not replace the live environment
	if _, err := vm.RunString(bridgeBootstrap()); err != nil {
		t.Fatalf("error rerunning bootstrap: %s\n", err)
	}
	if _, err := vm.RunString(`window.__listeners['DOMContentLoaded']()`); err != nil {
		t.Fatalf("error firing document ready: %s\n", err)
	}
	if len(posted) != 1 {
		t.Fatalf("expected a single title payload got %d\n", len(posted))
	}
}

var payloadInputs = []struct {
	name    string
	payload string
}{
	{"not json", `{"object": "app"`},
	{"missing object", `{"callback": "cb", "args": []}`},
	{"missing callback", `{"object": "app", "args": []}`},
	{"args not array", `{"object": "app", "callback": "cb", "args": {"a": 1}}`},
}

func TestParseBridgePayloadRejects(t *testing.T) {
	for _, in := range payloadInputs {
		if _, _, _, err := parseBridgePayload(in.payload); err == nil {
			t.Fatalf("%s: expected payload to be rejected\n", in.name)
		}
	}
}

func TestObjectBook(t *testing.T) {
	book := newObjectBook()

	if err := book.setProperty("ghost", "x", []byte(`1`)); err != webview.ErrObjectNotFound {
		t.Fatalf("expected object not found, got: %v\n", err)
	}
	if err := book.setCallback("ghost", "cb"); err != webview.ErrObjectNotFound {
		t.Fatalf("expected object not found, got: %v\n", err)
	}
	if existed, err := book.destroyObject("ghost"); err != nil || existed {
		t.Fatalf("destroying an unknown object must report existed=false\n")
	}

	if err := book.createObject("app"); err != nil {
		t.Fatalf("error creating object: %s\n", err)
	}
	if err := book.setCallback("app", "cb"); err != nil {
		t.Fatalf("error setting callback: %s\n", err)
	}
	if err := book.setCallback("app", "cb"); err != nil {
		t.Fatalf("error rebinding callback: %s\n", err)
	}
	if n := gjson.Get(book.doc, "objects.app.callbacks.#").Int(); n != 1 {
		t.Fatalf("rebinding a callback must not duplicate it, have %d\n", n)
	}

	if err := book.setProperty("app", "x", []byte(`41`)); err != nil {
		t.Fatalf("error setting property: %s\n", err)
	}
	if err := book.setProperty("app", "x", []byte(`42`)); err != nil {
		t.Fatalf("error updating property: %s\n", err)
	}
	if got := gjson.Get(book.doc, "objects.app.properties.x").Int(); got != 42 {
		t.Fatalf("expected updated property 42 got %d\n", got)
	}

	if err := book.createObject("app"); err != nil {
		t.Fatalf("error recreating object: %s\n", err)
	}
	if gjson.Get(book.doc, "objects.app.properties.x").Exists() {
		t.Fatalf("recreating an object must reset it\n")
	}

	if existed, err := book.destroyObject("app"); err != nil || !existed {
		t.Fatalf("expected destroy to report existed=true, err: %v\n", err)
	}
	if gjson.Get(book.doc, "objects.app").Exists() {
		t.Fatalf("destroyed object still in the book\n")
	}
}

package chrome

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gitlab.com/offview/webview"
)

// bridgeBindingName is the page side function script callbacks funnel
// through
const bridgeBindingName = "__offviewEmit"

const internalObjectName = "__offview"
const internalTitleCallback = "titleChange"

const bridgeBootstrapFmt = `(function() {
  if (window.__offviewReady) { return; }
  Object.defineProperty(window, '__offviewReady', { value: true });
  window.__offviewPost = function(object, callback, args) {
    window[%q](JSON.stringify({ object: object, callback: callback, args: args || [] }));
  };
  var reportTitle = function() {
    window.__offviewPost(%q, %q, [document.title]);
  };
  window.addEventListener('DOMContentLoaded', function() {
    reportTitle();
    var watchTitle = function() {
      var title = document.querySelector('title');
      if (!title) { return false; }
      new MutationObserver(reportTitle).observe(title, { childList: true, characterData: true, subtree: true });
      return true;
    };
    if (!watchTitle() && document.head) {
      var headObserver = new MutationObserver(function() {
        if (watchTitle()) {
          reportTitle();
          headObserver.disconnect();
        }
      });
      headObserver.observe(document.head, { childList: true });
    }
  });
})();`

// bridgeBootstrap is evaluated on every new document before page
// scripts run
func bridgeBootstrap() string {
	return fmt.Sprintf(bridgeBootstrapFmt, bridgeBindingName, internalObjectName, internalTitleCallback)
}

// objectBook records the script objects created on a view as a JSON
// document so the page install script can be regenerated at any time.
// Shape: {"objects":{NAME:{"properties":{...},"callbacks":[...]}}}
type objectBook struct {
	mu  sync.Mutex
	doc string
}

func newObjectBook() *objectBook {
	return &objectBook{doc: `{"objects":{}}`}
}

// createObject registers name, an existing object is reset to empty
func (b *objectBook) createObject(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc, err := sjson.SetRaw(b.doc, "objects."+escapeJSONPath(name), `{"properties":{},"callbacks":[]}`)
	if err != nil {
		return err
	}
	b.doc = doc
	return nil
}

// destroyObject forgets name, reporting whether it existed
func (b *objectBook) destroyObject(name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	path := "objects." + escapeJSONPath(name)
	if !gjson.Get(b.doc, path).Exists() {
		return false, nil
	}
	doc, err := sjson.Delete(b.doc, path)
	if err != nil {
		return false, err
	}
	b.doc = doc
	return true, nil
}

// setProperty stores an encoded property value on an existing object
func (b *objectBook) setProperty(name, property string, raw []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !gjson.Get(b.doc, "objects."+escapeJSONPath(name)).Exists() {
		return webview.ErrObjectNotFound
	}
	doc, err := sjson.SetRaw(b.doc, "objects."+escapeJSONPath(name)+".properties."+escapeJSONPath(property), string(raw))
	if err != nil {
		return err
	}
	b.doc = doc
	return nil
}

// setCallback binds a callback name on an existing object, binding the
// same name twice is a no op
func (b *objectBook) setCallback(name, callback string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	path := "objects." + escapeJSONPath(name)
	if !gjson.Get(b.doc, path).Exists() {
		return webview.ErrObjectNotFound
	}
	exists := false
	gjson.Get(b.doc, path+".callbacks").ForEach(func(_, bound gjson.Result) bool {
		if bound.String() == callback {
			exists = true
			return false
		}
		return true
	})
	if exists {
		return nil
	}
	doc, err := sjson.Set(b.doc, path+".callbacks.-1", callback)
	if err != nil {
		return err
	}
	b.doc = doc
	return nil
}

// script renders the install script recreating every object with its
// properties and callback stubs on window
func (b *objectBook) script() string {
	b.mu.Lock()
	doc := b.doc
	b.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("(function() {\n")
	gjson.Get(doc, "objects").ForEach(func(name, def gjson.Result) bool {
		obj := jsonString(name.String())
		sb.WriteString(fmt.Sprintf("  window[%s] = {};\n", obj))
		def.Get("properties").ForEach(func(property, value gjson.Result) bool {
			sb.WriteString(fmt.Sprintf("  window[%s][%s] = %s;\n", obj, jsonString(property.String()), value.Raw))
			return true
		})
		def.Get("callbacks").ForEach(func(_, callback gjson.Result) bool {
			cb := jsonString(callback.String())
			sb.WriteString(fmt.Sprintf("  window[%s][%s] = function() { window.__offviewPost(%s, %s, Array.prototype.slice.call(arguments)); };\n", obj, cb, obj, cb))
			return true
		})
		return true
	})
	sb.WriteString("})();")
	return sb.String()
}

// parseBridgePayload unpacks a binding payload posted by the page
func parseBridgePayload(payload string) (string, string, webview.JSArguments, error) {
	if !gjson.Valid(payload) {
		return "", "", nil, ErrBridgePayload
	}
	doc := gjson.Parse(payload)
	object := doc.Get("object").String()
	callback := doc.Get("callback").String()
	if object == "" || callback == "" {
		return "", "", nil, ErrBridgePayload
	}

	var args webview.JSArguments
	rawArgs := doc.Get("args")
	if rawArgs.Exists() {
		if !rawArgs.IsArray() {
			return "", "", nil, ErrBridgePayload
		}
		for _, e := range rawArgs.Array() {
			args = append(args, gjsonToJSValue(e))
		}
	}
	return object, callback, args, nil
}

// escapeJSONPath escapes characters the path syntax treats specially so
// arbitrary object names stay addressable
func escapeJSONPath(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// jsonString renders s as a script string literal
func jsonString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

package webview

import "time"

// NavigationEvent details for navigation related listener callbacks
type NavigationEvent struct {
	URL         string    `json:"url"`      // URL being navigated to
	Frame       string    `json:"frame"`    // frame name, empty for the main frame
	IsMainFrame bool      `json:"is_main"`  // true when the event is for the main frame
	Observed    time.Time `json:"observed"` // time the event was observed
}

// ScriptCallbackEvent is delivered when page script invokes a callback
// bound with SetObjectCallback
type ScriptCallbackEvent struct {
	Object   string      `json:"object"`   // script object name
	Callback string      `json:"callback"` // callback name invoked
	Args     JSArguments `json:"args"`     // arguments passed by the script
	Observed time.Time   `json:"observed"`
}

// ConsoleEvent is a message written to the page console
type ConsoleEvent struct {
	Source   string    `json:"source"`           // Message source.
	Level    string    `json:"level"`            // Message severity.
	Text     string    `json:"text"`             // Message text.
	URL      string    `json:"url,omitempty"`    // URL of the message origin.
	Line     int       `json:"line,omitempty"`   // Line number in the resource that generated this message (1-based).
	Column   int       `json:"column,omitempty"` // Column number in the resource that generated this message (1-based).
	Observed time.Time `json:"observed"`         // time the console event occurred
}

// Listener receives event notifications from a view. All mutating view
// operations are asynchronous, completion is only observable through
// these callbacks. Callbacks are invoked from engine owned goroutines
// and must not block.
type Listener interface {
	// OnBeginNavigation is called when a frame begins navigating to a new URL
	OnBeginNavigation(view View, evt *NavigationEvent)
	// OnFinishLoading is called when a frame finishes loading
	OnFinishLoading(view View, evt *NavigationEvent)
	// OnDocumentReady is called when the main document finished parsing
	OnDocumentReady(view View, url string)
	// OnTitleChange is called when the page title is received or changes
	OnTitleChange(view View, title string)
	// OnAddressChange is called when the main frame URL changes
	OnAddressChange(view View, url string)
	// OnScriptCallback is called when page script invokes a bound callback
	OnScriptCallback(view View, evt *ScriptCallbackEvent)
	// OnCrashed is called when the underlying engine process dies
	OnCrashed(view View, reason string)
	// OnConsoleMessage is called for messages written to the page console
	OnConsoleMessage(view View, evt *ConsoleEvent)
}

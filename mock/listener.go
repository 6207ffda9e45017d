package mock

import "gitlab.com/offview/webview"

// Listener is a configurable webview.Listener double
type Listener struct {
	OnBeginNavigationFn     func(view webview.View, evt *webview.NavigationEvent)
	OnBeginNavigationCalled bool

	OnFinishLoadingFn     func(view webview.View, evt *webview.NavigationEvent)
	OnFinishLoadingCalled bool

	OnDocumentReadyFn     func(view webview.View, url string)
	OnDocumentReadyCalled bool

	OnTitleChangeFn     func(view webview.View, title string)
	OnTitleChangeCalled bool

	OnAddressChangeFn     func(view webview.View, url string)
	OnAddressChangeCalled bool

	OnScriptCallbackFn     func(view webview.View, evt *webview.ScriptCallbackEvent)
	OnScriptCallbackCalled bool

	OnCrashedFn     func(view webview.View, reason string)
	OnCrashedCalled bool

	OnConsoleMessageFn     func(view webview.View, evt *webview.ConsoleEvent)
	OnConsoleMessageCalled bool
}

// OnBeginNavigation called when a frame commits a navigation
func (l *Listener) OnBeginNavigation(view webview.View, evt *webview.NavigationEvent) {
	l.OnBeginNavigationCalled = true
	l.OnBeginNavigationFn(view, evt)
}

// OnFinishLoading called when a frame finished loading
func (l *Listener) OnFinishLoading(view webview.View, evt *webview.NavigationEvent) {
	l.OnFinishLoadingCalled = true
	l.OnFinishLoadingFn(view, evt)
}

// OnDocumentReady called when the DOM is ready
func (l *Listener) OnDocumentReady(view webview.View, url string) {
	l.OnDocumentReadyCalled = true
	l.OnDocumentReadyFn(view, url)
}

// OnTitleChange called when the page title changed
func (l *Listener) OnTitleChange(view webview.View, title string) {
	l.OnTitleChangeCalled = true
	l.OnTitleChangeFn(view, title)
}

// OnAddressChange called when the main frame URL changed
func (l *Listener) OnAddressChange(view webview.View, url string) {
	l.OnAddressChangeCalled = true
	l.OnAddressChangeFn(view, url)
}

// OnScriptCallback called when page script invoked a bound callback
func (l *Listener) OnScriptCallback(view webview.View, evt *webview.ScriptCallbackEvent) {
	l.OnScriptCallbackCalled = true
	l.OnScriptCallbackFn(view, evt)
}

// OnCrashed called when the engine process died
func (l *Listener) OnCrashed(view webview.View, reason string) {
	l.OnCrashedCalled = true
	l.OnCrashedFn(view, reason)
}

// OnConsoleMessage called for page console output
func (l *Listener) OnConsoleMessage(view webview.View, evt *webview.ConsoleEvent) {
	l.OnConsoleMessageCalled = true
	l.OnConsoleMessageFn(view, evt)
}

// MakeMockListener returns a listener double that swallows every event
func MakeMockListener() *Listener {
	l := &Listener{}
	l.OnBeginNavigationFn = func(view webview.View, evt *webview.NavigationEvent) {}
	l.OnFinishLoadingFn = func(view webview.View, evt *webview.NavigationEvent) {}
	l.OnDocumentReadyFn = func(view webview.View, url string) {}
	l.OnTitleChangeFn = func(view webview.View, title string) {}
	l.OnAddressChangeFn = func(view webview.View, url string) {}
	l.OnScriptCallbackFn = func(view webview.View, evt *webview.ScriptCallbackEvent) {}
	l.OnCrashedFn = func(view webview.View, reason string) {}
	l.OnConsoleMessageFn = func(view webview.View, evt *webview.ConsoleEvent) {}
	return l
}

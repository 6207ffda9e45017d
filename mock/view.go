package mock

import (
	"context"

	"gitlab.com/offview/webview"
)

// RewriteRule records an AddHeaderRewriteRule call
type RewriteRule struct {
	Rule       string
	Definition string
}

// View is a configurable webview.View double. MakeMockView returns one
// with benign defaults that record gate configuration into the exported
// fields.
type View struct {
	// state the default Fns maintain
	IDValue     int64
	URLValue    string
	TitleValue  string
	Registered  webview.Listener
	Intercept   webview.ResourceInterceptor
	FilterMode  webview.URLFilteringMode
	Filters     []string
	Definitions map[string]webview.HeaderDefinition
	Rules       []RewriteRule
	Destroyed   bool

	IDFn     func() int64
	IDCalled bool

	DestroyFn     func()
	DestroyCalled bool

	SetListenerFn     func(listener webview.Listener)
	SetListenerCalled bool

	ListenerFn     func() webview.Listener
	ListenerCalled bool

	SetResourceInterceptorFn     func(interceptor webview.ResourceInterceptor)
	SetResourceInterceptorCalled bool

	ResourceInterceptorFn     func() webview.ResourceInterceptor
	ResourceInterceptorCalled bool

	LoadURLFn     func(ctx context.Context, url string) error
	LoadURLCalled bool

	LoadURLWithParamsFn     func(ctx context.Context, params *webview.LoadURLParams) error
	LoadURLWithParamsCalled bool

	LoadHTMLFn     func(ctx context.Context, html, frame string) error
	LoadHTMLCalled bool

	LoadFileFn     func(ctx context.Context, file, frame string) error
	LoadFileCalled bool

	GoToHistoryOffsetFn     func(ctx context.Context, offset int) error
	GoToHistoryOffsetCalled bool

	StopFn     func(ctx context.Context) error
	StopCalled bool

	ReloadFn     func(ctx context.Context) error
	ReloadCalled bool

	ExecuteJavascriptFn     func(ctx context.Context, script, frame string) error
	ExecuteJavascriptCalled bool

	ExecuteJavascriptWithResultFn     func(ctx context.Context, script, frame string) *webview.FutureJSValue
	ExecuteJavascriptWithResultCalled bool

	CallJavascriptFunctionFn     func(ctx context.Context, object, function string, args webview.JSArguments, frame string) error
	CallJavascriptFunctionCalled bool

	CreateObjectFn     func(ctx context.Context, name string) error
	CreateObjectCalled bool

	DestroyObjectFn     func(ctx context.Context, name string) error
	DestroyObjectCalled bool

	SetObjectPropertyFn     func(ctx context.Context, object, property string, value webview.JSValue) error
	SetObjectPropertyCalled bool

	SetObjectCallbackFn     func(ctx context.Context, object, callback string) error
	SetObjectCallbackCalled bool

	IsLoadingPageFn     func() bool
	IsLoadingPageCalled bool

	URLFn     func() string
	URLCalled bool

	TitleFn     func() string
	TitleCalled bool

	IsDirtyFn     func() bool
	IsDirtyCalled bool

	DirtyBoundsFn     func() webview.Rect
	DirtyBoundsCalled bool

	RenderFn     func() *webview.RenderBuffer
	RenderCalled bool

	PauseRenderingFn     func(ctx context.Context) error
	PauseRenderingCalled bool

	ResumeRenderingFn     func(ctx context.Context) error
	ResumeRenderingCalled bool

	InjectMouseMoveFn     func(ctx context.Context, x, y int) error
	InjectMouseMoveCalled bool

	InjectMouseDownFn     func(ctx context.Context, button webview.MouseButton) error
	InjectMouseDownCalled bool

	InjectMouseUpFn     func(ctx context.Context, button webview.MouseButton) error
	InjectMouseUpCalled bool

	InjectMouseWheelFn     func(ctx context.Context, scrollAmount int) error
	InjectMouseWheelCalled bool

	InjectKeyboardEventFn     func(ctx context.Context, event *webview.KeyEvent) error
	InjectKeyboardEventCalled bool

	CutFn     func(ctx context.Context) error
	CutCalled bool

	CopyFn     func(ctx context.Context) error
	CopyCalled bool

	PasteFn     func(ctx context.Context) error
	PasteCalled bool

	SelectAllFn     func(ctx context.Context) error
	SelectAllCalled bool

	SetZoomFn     func(ctx context.Context, zoomPercent int) error
	SetZoomCalled bool

	ResetZoomFn     func(ctx context.Context) error
	ResetZoomCalled bool

	ResizeFn     func(ctx context.Context, width, height int, opts *webview.ResizeOpts) bool
	ResizeCalled bool

	IsResizingFn     func() bool
	IsResizingCalled bool

	FocusFn     func(ctx context.Context) error
	FocusCalled bool

	UnfocusFn     func(ctx context.Context) error
	UnfocusCalled bool

	SetTransparentFn     func(ctx context.Context, transparent bool) error
	SetTransparentCalled bool

	SetURLFilteringModeFn     func(mode webview.URLFilteringMode)
	SetURLFilteringModeCalled bool

	AddURLFilterFn     func(filter string)
	AddURLFilterCalled bool

	ClearAllURLFiltersFn     func()
	ClearAllURLFiltersCalled bool

	SetHeaderDefinitionFn     func(name string, definition webview.HeaderDefinition)
	SetHeaderDefinitionCalled bool

	AddHeaderRewriteRuleFn     func(rule, definitionName string)
	AddHeaderRewriteRuleCalled bool

	RemoveHeaderRewriteRuleFn     func(rule string)
	RemoveHeaderRewriteRuleCalled bool

	RemoveHeaderRewriteRulesByDefinitionNameFn     func(name string)
	RemoveHeaderRewriteRulesByDefinitionNameCalled bool
}

// ID of the view
func (v *View) ID() int64 {
	v.IDCalled = true
	return v.IDFn()
}

// Destroy the view
func (v *View) Destroy() {
	v.DestroyCalled = true
	v.DestroyFn()
}

// SetListener for event callbacks
func (v *View) SetListener(listener webview.Listener) {
	v.SetListenerCalled = true
	v.SetListenerFn(listener)
}

// Listener currently registered
func (v *View) Listener() webview.Listener {
	v.ListenerCalled = true
	return v.ListenerFn()
}

// SetResourceInterceptor for request hooks
func (v *View) SetResourceInterceptor(interceptor webview.ResourceInterceptor) {
	v.SetResourceInterceptorCalled = true
	v.SetResourceInterceptorFn(interceptor)
}

// ResourceInterceptor currently registered
func (v *View) ResourceInterceptor() webview.ResourceInterceptor {
	v.ResourceInterceptorCalled = true
	return v.ResourceInterceptorFn()
}

// LoadURL into the main frame
func (v *View) LoadURL(ctx context.Context, url string) error {
	v.LoadURLCalled = true
	return v.LoadURLFn(ctx, url)
}

// LoadURLWithParams into a named frame or with credentials
func (v *View) LoadURLWithParams(ctx context.Context, params *webview.LoadURLParams) error {
	v.LoadURLWithParamsCalled = true
	return v.LoadURLWithParamsFn(ctx, params)
}

// LoadHTML into a frame
func (v *View) LoadHTML(ctx context.Context, html, frame string) error {
	v.LoadHTMLCalled = true
	return v.LoadHTMLFn(ctx, html, frame)
}

// LoadFile relative to the base directory
func (v *View) LoadFile(ctx context.Context, file, frame string) error {
	v.LoadFileCalled = true
	return v.LoadFileFn(ctx, file, frame)
}

// GoToHistoryOffset navigates relative history
func (v *View) GoToHistoryOffset(ctx context.Context, offset int) error {
	v.GoToHistoryOffsetCalled = true
	return v.GoToHistoryOffsetFn(ctx, offset)
}

// Stop the current load
func (v *View) Stop(ctx context.Context) error {
	v.StopCalled = true
	return v.StopFn(ctx)
}

// Reload the page
func (v *View) Reload(ctx context.Context) error {
	v.ReloadCalled = true
	return v.ReloadFn(ctx)
}

// ExecuteJavascript in a frame
func (v *View) ExecuteJavascript(ctx context.Context, script, frame string) error {
	v.ExecuteJavascriptCalled = true
	return v.ExecuteJavascriptFn(ctx, script, frame)
}

// ExecuteJavascriptWithResult returns a future for the script value
func (v *View) ExecuteJavascriptWithResult(ctx context.Context, script, frame string) *webview.FutureJSValue {
	v.ExecuteJavascriptWithResultCalled = true
	return v.ExecuteJavascriptWithResultFn(ctx, script, frame)
}

// CallJavascriptFunction on a page object
func (v *View) CallJavascriptFunction(ctx context.Context, object, function string, args webview.JSArguments, frame string) error {
	v.CallJavascriptFunctionCalled = true
	return v.CallJavascriptFunctionFn(ctx, object, function, args, frame)
}

// CreateObject on the page's window
func (v *View) CreateObject(ctx context.Context, name string) error {
	v.CreateObjectCalled = true
	return v.CreateObjectFn(ctx, name)
}

// DestroyObject from the page's window
func (v *View) DestroyObject(ctx context.Context, name string) error {
	v.DestroyObjectCalled = true
	return v.DestroyObjectFn(ctx, name)
}

// SetObjectProperty on a created object
func (v *View) SetObjectProperty(ctx context.Context, object, property string, value webview.JSValue) error {
	v.SetObjectPropertyCalled = true
	return v.SetObjectPropertyFn(ctx, object, property, value)
}

// SetObjectCallback on a created object
func (v *View) SetObjectCallback(ctx context.Context, object, callback string) error {
	v.SetObjectCallbackCalled = true
	return v.SetObjectCallbackFn(ctx, object, callback)
}

// IsLoadingPage state
func (v *View) IsLoadingPage() bool {
	v.IsLoadingPageCalled = true
	return v.IsLoadingPageFn()
}

// URL of the main frame
func (v *View) URL() string {
	v.URLCalled = true
	return v.URLFn()
}

// Title of the page
func (v *View) Title() string {
	v.TitleCalled = true
	return v.TitleFn()
}

// IsDirty state
func (v *View) IsDirty() bool {
	v.IsDirtyCalled = true
	return v.IsDirtyFn()
}

// DirtyBounds of accumulated damage
func (v *View) DirtyBounds() webview.Rect {
	v.DirtyBoundsCalled = true
	return v.DirtyBoundsFn()
}

// Render the latest frame
func (v *View) Render() *webview.RenderBuffer {
	v.RenderCalled = true
	return v.RenderFn()
}

// PauseRendering stops the frame feed
func (v *View) PauseRendering(ctx context.Context) error {
	v.PauseRenderingCalled = true
	return v.PauseRenderingFn(ctx)
}

// ResumeRendering restarts the frame feed
func (v *View) ResumeRendering(ctx context.Context) error {
	v.ResumeRenderingCalled = true
	return v.ResumeRenderingFn(ctx)
}

// InjectMouseMove to view coordinates
func (v *View) InjectMouseMove(ctx context.Context, x, y int) error {
	v.InjectMouseMoveCalled = true
	return v.InjectMouseMoveFn(ctx, x, y)
}

// InjectMouseDown at the pointer position
func (v *View) InjectMouseDown(ctx context.Context, button webview.MouseButton) error {
	v.InjectMouseDownCalled = true
	return v.InjectMouseDownFn(ctx, button)
}

// InjectMouseUp at the pointer position
func (v *View) InjectMouseUp(ctx context.Context, button webview.MouseButton) error {
	v.InjectMouseUpCalled = true
	return v.InjectMouseUpFn(ctx, button)
}

// InjectMouseWheel at the pointer position
func (v *View) InjectMouseWheel(ctx context.Context, scrollAmount int) error {
	v.InjectMouseWheelCalled = true
	return v.InjectMouseWheelFn(ctx, scrollAmount)
}

// InjectKeyboardEvent into the view
func (v *View) InjectKeyboardEvent(ctx context.Context, event *webview.KeyEvent) error {
	v.InjectKeyboardEventCalled = true
	return v.InjectKeyboardEventFn(ctx, event)
}

// Cut the selection
func (v *View) Cut(ctx context.Context) error {
	v.CutCalled = true
	return v.CutFn(ctx)
}

// Copy the selection
func (v *View) Copy(ctx context.Context) error {
	v.CopyCalled = true
	return v.CopyFn(ctx)
}

// Paste the clipboard
func (v *View) Paste(ctx context.Context) error {
	v.PasteCalled = true
	return v.PasteFn(ctx)
}

// SelectAll of the document
func (v *View) SelectAll(ctx context.Context) error {
	v.SelectAllCalled = true
	return v.SelectAllFn(ctx)
}

// SetZoom percent
func (v *View) SetZoom(ctx context.Context, zoomPercent int) error {
	v.SetZoomCalled = true
	return v.SetZoomFn(ctx, zoomPercent)
}

// ResetZoom to the default
func (v *View) ResetZoom(ctx context.Context) error {
	v.ResetZoomCalled = true
	return v.ResetZoomFn(ctx)
}

// Resize the view
func (v *View) Resize(ctx context.Context, width, height int, opts *webview.ResizeOpts) bool {
	v.ResizeCalled = true
	return v.ResizeFn(ctx, width, height, opts)
}

// IsResizing state
func (v *View) IsResizing() bool {
	v.IsResizingCalled = true
	return v.IsResizingFn()
}

// Focus the view
func (v *View) Focus(ctx context.Context) error {
	v.FocusCalled = true
	return v.FocusFn(ctx)
}

// Unfocus the view
func (v *View) Unfocus(ctx context.Context) error {
	v.UnfocusCalled = true
	return v.UnfocusFn(ctx)
}

// SetTransparent background compositing
func (v *View) SetTransparent(ctx context.Context, transparent bool) error {
	v.SetTransparentCalled = true
	return v.SetTransparentFn(ctx, transparent)
}

// SetURLFilteringMode for request filtering
func (v *View) SetURLFilteringMode(mode webview.URLFilteringMode) {
	v.SetURLFilteringModeCalled = true
	v.SetURLFilteringModeFn(mode)
}

// AddURLFilter rule
func (v *View) AddURLFilter(filter string) {
	v.AddURLFilterCalled = true
	v.AddURLFilterFn(filter)
}

// ClearAllURLFilters rules
func (v *View) ClearAllURLFilters() {
	v.ClearAllURLFiltersCalled = true
	v.ClearAllURLFiltersFn()
}

// SetHeaderDefinition for rewrite rules
func (v *View) SetHeaderDefinition(name string, definition webview.HeaderDefinition) {
	v.SetHeaderDefinitionCalled = true
	v.SetHeaderDefinitionFn(name, definition)
}

// AddHeaderRewriteRule binding a rule to a definition
func (v *View) AddHeaderRewriteRule(rule, definitionName string) {
	v.AddHeaderRewriteRuleCalled = true
	v.AddHeaderRewriteRuleFn(rule, definitionName)
}

// RemoveHeaderRewriteRule by exact rule
func (v *View) RemoveHeaderRewriteRule(rule string) {
	v.RemoveHeaderRewriteRuleCalled = true
	v.RemoveHeaderRewriteRuleFn(rule)
}

// RemoveHeaderRewriteRulesByDefinitionName or all for the empty name
func (v *View) RemoveHeaderRewriteRulesByDefinitionName(name string) {
	v.RemoveHeaderRewriteRulesByDefinitionNameCalled = true
	v.RemoveHeaderRewriteRulesByDefinitionNameFn(name)
}

// MakeMockView returns a view double whose defaults succeed and record
// listener, interceptor and gate configuration on the struct
func MakeMockView() *View {
	v := &View{IDValue: 1, Definitions: make(map[string]webview.HeaderDefinition)}

	v.IDFn = func() int64 { return v.IDValue }
	v.DestroyFn = func() { v.Destroyed = true }
	v.SetListenerFn = func(listener webview.Listener) { v.Registered = listener }
	v.ListenerFn = func() webview.Listener { return v.Registered }
	v.SetResourceInterceptorFn = func(interceptor webview.ResourceInterceptor) { v.Intercept = interceptor }
	v.ResourceInterceptorFn = func() webview.ResourceInterceptor { return v.Intercept }

	v.LoadURLFn = func(ctx context.Context, url string) error {
		v.URLValue = url
		return nil
	}
	v.LoadURLWithParamsFn = func(ctx context.Context, params *webview.LoadURLParams) error {
		if params != nil {
			v.URLValue = params.URL
		}
		return nil
	}
	v.LoadHTMLFn = func(ctx context.Context, html, frame string) error { return nil }
	v.LoadFileFn = func(ctx context.Context, file, frame string) error { return nil }
	v.GoToHistoryOffsetFn = func(ctx context.Context, offset int) error { return nil }
	v.StopFn = func(ctx context.Context) error { return nil }
	v.ReloadFn = func(ctx context.Context) error { return nil }

	v.ExecuteJavascriptFn = func(ctx context.Context, script, frame string) error { return nil }
	v.ExecuteJavascriptWithResultFn = func(ctx context.Context, script, frame string) *webview.FutureJSValue {
		future := webview.NewFutureJSValue()
		future.Complete(webview.NullValue())
		return future
	}
	v.CallJavascriptFunctionFn = func(ctx context.Context, object, function string, args webview.JSArguments, frame string) error { return nil }
	v.CreateObjectFn = func(ctx context.Context, name string) error { return nil }
	v.DestroyObjectFn = func(ctx context.Context, name string) error { return nil }
	v.SetObjectPropertyFn = func(ctx context.Context, object, property string, value webview.JSValue) error { return nil }
	v.SetObjectCallbackFn = func(ctx context.Context, object, callback string) error { return nil }

	v.IsLoadingPageFn = func() bool { return false }
	v.URLFn = func() string { return v.URLValue }
	v.TitleFn = func() string { return v.TitleValue }
	v.IsDirtyFn = func() bool { return false }
	v.DirtyBoundsFn = func() webview.Rect { return webview.Rect{} }
	v.RenderFn = func() *webview.RenderBuffer { return nil }
	v.PauseRenderingFn = func(ctx context.Context) error { return nil }
	v.ResumeRenderingFn = func(ctx context.Context) error { return nil }

	v.InjectMouseMoveFn = func(ctx context.Context, x, y int) error { return nil }
	v.InjectMouseDownFn = func(ctx context.Context, button webview.MouseButton) error { return nil }
	v.InjectMouseUpFn = func(ctx context.Context, button webview.MouseButton) error { return nil }
	v.InjectMouseWheelFn = func(ctx context.Context, scrollAmount int) error { return nil }
	v.InjectKeyboardEventFn = func(ctx context.Context, event *webview.KeyEvent) error { return nil }

	v.CutFn = func(ctx context.Context) error { return nil }
	v.CopyFn = func(ctx context.Context) error { return nil }
	v.PasteFn = func(ctx context.Context) error { return nil }
	v.SelectAllFn = func(ctx context.Context) error { return nil }
	v.SetZoomFn = func(ctx context.Context, zoomPercent int) error { return nil }
	v.ResetZoomFn = func(ctx context.Context) error { return nil }

	v.ResizeFn = func(ctx context.Context, width, height int, opts *webview.ResizeOpts) bool { return true }
	v.IsResizingFn = func() bool { return false }
	v.FocusFn = func(ctx context.Context) error { return nil }
	v.UnfocusFn = func(ctx context.Context) error { return nil }
	v.SetTransparentFn = func(ctx context.Context, transparent bool) error { return nil }

	v.SetURLFilteringModeFn = func(mode webview.URLFilteringMode) { v.FilterMode = mode }
	v.AddURLFilterFn = func(filter string) { v.Filters = append(v.Filters, filter) }
	v.ClearAllURLFiltersFn = func() { v.Filters = nil }
	v.SetHeaderDefinitionFn = func(name string, definition webview.HeaderDefinition) {
		v.Definitions[name] = definition.Copy()
	}
	v.AddHeaderRewriteRuleFn = func(rule, definitionName string) {
		v.Rules = append(v.Rules, RewriteRule{Rule: rule, Definition: definitionName})
	}
	v.RemoveHeaderRewriteRuleFn = func(rule string) {
		kept := v.Rules[:0]
		for _, r := range v.Rules {
			if r.Rule != rule {
				kept = append(kept, r)
			}
		}
		v.Rules = kept
	}
	v.RemoveHeaderRewriteRulesByDefinitionNameFn = func(name string) {
		if name == "" {
			v.Rules = nil
			return
		}
		kept := v.Rules[:0]
		for _, r := range v.Rules {
			if r.Definition != name {
				kept = append(kept, r)
			}
		}
		v.Rules = kept
	}
	return v
}

package webview

import (
	"context"
	"time"
)

const (
	// MinZoomPercent and MaxZoomPercent bound SetZoom, values outside
	// the range are clamped
	MinZoomPercent = 10
	MaxZoomPercent = 500

	// DefaultZoomPercent is the zoom of a fresh view
	DefaultZoomPercent = 100

	// DefaultRepaintTimeout is how long Resize waits for a repaint when
	// no ResizeOpts are given
	DefaultRepaintTimeout = 300 * time.Millisecond

	// LocalScheme prefixes URL filter rules that match files served
	// from the core's base directory
	LocalScheme = "local://"
)

// LoadURLParams for navigations that target a named frame or carry
// basic auth credentials
type LoadURLParams struct {
	URL      string
	Frame    string // frame name, empty targets the main frame
	Username string // basic auth username, empty for none
	Password string
}

// ResizeOpts controls the blocking behavior of Resize. A nil opts waits
// for a repaint up to DefaultRepaintTimeout.
type ResizeOpts struct {
	WaitForRepaint bool
	RepaintTimeout time.Duration
}

// View is a single embeddable browsing surface, the tab equivalent of
// the external engine. All mutating operations are asynchronous unless
// noted, the call returns once the engine accepted the command and
// completion is reported through the registered Listener. Point in time
// queries (IsLoadingPage, IsDirty, IsResizing) carry no transition
// guarantees. A View is safe for use from multiple goroutines.
type View interface {
	ID() int64

	// Destroy queues this view for destruction by the owning Core. No
	// methods may be called after Destroy.
	Destroy()

	// SetListener registers a Listener for event callbacks, nil clears it
	SetListener(listener Listener)
	Listener() Listener

	// SetResourceInterceptor registers a request hook, nil clears it
	SetResourceInterceptor(interceptor ResourceInterceptor)
	ResourceInterceptor() ResourceInterceptor

	// LoadURL begins navigating the main frame to url
	LoadURL(ctx context.Context, url string) error
	// LoadURLWithParams begins a navigation with a frame target or
	// basic auth credentials
	LoadURLWithParams(ctx context.Context, params *LoadURLParams) error
	// LoadHTML loads a raw HTML string into the frame, relative
	// resources resolve against the core's base directory
	LoadHTML(ctx context.Context, html, frame string) error
	// LoadFile loads a file path relative to the core's base directory
	LoadFile(ctx context.Context, file, frame string) error
	// GoToHistoryOffset navigates relative to the current history
	// entry, negative is back, positive is forward
	GoToHistoryOffset(ctx context.Context, offset int) error
	Stop(ctx context.Context) error
	Reload(ctx context.Context) error

	// ExecuteJavascript runs script in the frame, fire and forget
	ExecuteJavascript(ctx context.Context, script, frame string) error
	// ExecuteJavascriptWithResult runs script and returns an IOU for
	// its result, resolved once the engine reports back
	ExecuteJavascriptWithResult(ctx context.Context, script, frame string) *FutureJSValue
	// CallJavascriptFunction invokes object.function(args...) in the frame
	CallJavascriptFunction(ctx context.Context, object, function string, args JSArguments, frame string) error

	// CreateObject creates a named script object on the page's window,
	// persisting across navigations for the life of the view
	CreateObject(ctx context.Context, name string) error
	DestroyObject(ctx context.Context, name string) error
	// SetObjectProperty sets a property on a created object
	SetObjectProperty(ctx context.Context, object, property string, value JSValue) error
	// SetObjectCallback binds a callback name on a created object,
	// script side invocations surface via Listener.OnScriptCallback
	SetObjectCallback(ctx context.Context, object, callback string) error

	IsLoadingPage() bool
	// URL of the main frame as of the last committed navigation
	URL() string
	// Title as last reported by the page
	Title() string

	IsDirty() bool
	DirtyBounds() Rect
	// Render returns the most recent frame and clears the dirty state.
	// Returns nil after the engine has crashed. The buffer is valid
	// until the next Render call.
	Render() *RenderBuffer
	PauseRendering(ctx context.Context) error
	ResumeRendering(ctx context.Context) error

	InjectMouseMove(ctx context.Context, x, y int) error
	// InjectMouseDown presses a button at the last injected move position
	InjectMouseDown(ctx context.Context, button MouseButton) error
	InjectMouseUp(ctx context.Context, button MouseButton) error
	InjectMouseWheel(ctx context.Context, scrollAmount int) error
	InjectKeyboardEvent(ctx context.Context, event *KeyEvent) error

	Cut(ctx context.Context) error
	Copy(ctx context.Context) error
	Paste(ctx context.Context) error
	SelectAll(ctx context.Context) error

	// SetZoom sets the page zoom percent, clamped to MinZoomPercent and
	// MaxZoomPercent. The zoom is remembered per host when the core has
	// a profile store.
	SetZoom(ctx context.Context, zoomPercent int) error
	ResetZoom(ctx context.Context) error

	// Resize the view. The only blocking call, when opts ask for a
	// repaint it waits until the engine produced a frame at the new
	// size or the timeout passed. Returns false on timeout or when
	// another resize is still pending.
	Resize(ctx context.Context, width, height int, opts *ResizeOpts) bool
	IsResizing() bool

	Focus(ctx context.Context) error
	Unfocus(ctx context.Context) error
	// SetTransparent composites the page over a transparent background
	// instead of white
	SetTransparent(ctx context.Context, transparent bool) error

	// SetURLFilteringMode switches how AddURLFilter rules gate resource
	// requests, FilterNone by default
	SetURLFilteringMode(mode URLFilteringMode)
	// AddURLFilter adds a wildcard rule, * matches any run and ? one
	// character. Rules prefixed with local:// match files under the
	// core's base directory.
	AddURLFilter(filter string)
	ClearAllURLFilters()

	// SetHeaderDefinition creates or updates a named header rewrite
	// definition
	SetHeaderDefinition(name string, definition HeaderDefinition)
	// AddHeaderRewriteRule associates a URL wildcard rule with a
	// definition name. The first matching rule wins.
	AddHeaderRewriteRule(rule, definitionName string)
	// RemoveHeaderRewriteRule removes the rule with the exact rule string
	RemoveHeaderRewriteRule(rule string)
	// RemoveHeaderRewriteRulesByDefinitionName removes all rules bound
	// to a definition name, an empty name removes every rule
	RemoveHeaderRewriteRulesByDefinitionName(name string)
}

// Core owns the engine processes behind views, constructs views and
// tears down views queued by Destroy
type Core interface {
	// Init starts the engine pool and opens the profile store
	Init(ctx context.Context) error
	// CreateView returns a live view of the given size
	CreateView(ctx context.Context, width, height int) (View, error)
	// BaseDirectory that LoadFile and local:// rules resolve against
	BaseDirectory() string
	// Shutdown destroys all views and releases every engine instance
	Shutdown(ctx context.Context) error
}

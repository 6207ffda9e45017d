package chrome

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wirepair/gcd"
	"github.com/wirepair/gcd/gcdapi"
	"gitlab.com/offview/webview"
)

type frameEntry struct {
	name     string
	url      string
	parentID string
}

// View drives a single engine tab over the debugger protocol. All
// exported methods are safe for concurrent use. Event callbacks fire
// on protocol goroutines so listener implementations must not block.
type View struct {
	id   int64
	core *WebCore
	b    *gcd.Gcd
	t    *gcd.ChromeTarget
	gate *RequestGate
	book *objectBook

	listenerMu  sync.RWMutex
	listener    webview.Listener
	interceptMu sync.RWMutex
	interceptor webview.ResourceInterceptor

	credsMu sync.RWMutex
	creds   *webview.Credentials

	crashedCh chan string
	exitCh    chan struct{}

	destroyedFlag int32
	exitFlag      int32
	crashed       atomic.Value
	loading       atomic.Value

	mouseX int32
	mouseY int32

	frameMu     sync.RWMutex
	mainFrameID string
	frames      map[string]*frameEntry
	contexts    map[string]int

	addrMu sync.RWMutex
	url    string
	title  string

	futMu   sync.Mutex
	futures map[*webview.FutureJSValue]struct{}

	scriptMu sync.Mutex
	scriptID string

	zoom     int32
	gateFlag int32

	surface       *surface
	width         int32
	height        int32
	resizingFlag  int32
	pausedFlag    int32
	resizeFrameCh chan struct{}
}

// NewView attaches to the tab, wires up subscribers, installs the
// script bridge and starts the render feed at width x height.
func NewView(ctx context.Context, core *WebCore, b *gcd.Gcd, t *gcd.ChromeTarget, width, height int) (*View, error) {
	v := &View{
		id:            webview.GetViewID(),
		core:          core,
		b:             b,
		t:             t,
		gate:          NewRequestGate(core.BaseDirectory()),
		book:          newObjectBook(),
		crashedCh:     make(chan string),
		exitCh:        make(chan struct{}),
		frames:        make(map[string]*frameEntry),
		contexts:      make(map[string]int),
		futures:       make(map[*webview.FutureJSValue]struct{}),
		zoom:          webview.DefaultZoomPercent,
		width:         int32(width),
		height:        int32(height),
		surface:       newSurface(),
		resizeFrameCh: make(chan struct{}, 1),
	}
	v.crashed.Store(false)
	v.loading.Store(false)

	v.subscribeEvents()

	if _, err := t.Page.Enable(); err != nil {
		return nil, errors.Wrap(err, "enabling page events")
	}
	if _, err := t.Runtime.Enable(); err != nil {
		return nil, errors.Wrap(err, "enabling runtime events")
	}
	if _, err := t.Console.Enable(); err != nil {
		return nil, errors.Wrap(err, "enabling console events")
	}
	if _, err := t.Inspector.Enable(); err != nil {
		return nil, errors.Wrap(err, "enabling inspector events")
	}

	if _, err := t.Runtime.AddBinding(bridgeBindingName, 0); err != nil {
		return nil, errors.Wrap(err, "adding script bridge binding")
	}
	if err := v.syncBridge(ctx); err != nil {
		return nil, err
	}

	if err := v.applyMetrics(width, height); err != nil {
		return nil, err
	}
	if core.cfg.Transparent {
		if err := v.SetTransparent(ctx, true); err != nil {
			return nil, err
		}
	}
	if err := v.startScreencast(); err != nil {
		return nil, err
	}

	if err := v.refreshFrames(); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("view_id", v.id).Msg("unable to read initial frame tree")
	}

	go v.monitor()
	return v, nil
}

// ID of this view, unique for the process lifetime
func (v *View) ID() int64 {
	return v.id
}

// Destroy queues the view for teardown. The view is unusable as soon
// as this returns, teardown itself happens asynchronously.
func (v *View) Destroy() {
	if !atomic.CompareAndSwapInt32(&v.destroyedFlag, 0, 1) {
		return
	}
	v.core.queueDestroy(v)
}

// close releases protocol state and hands the engine instance back to
// the pool. Only the first caller gets the instance.
func (v *View) close() *gcd.Gcd {
	atomic.StoreInt32(&v.destroyedFlag, 1)
	if !v.signalExit() {
		return nil
	}
	v.stopScreencast()
	v.failFutures(webview.ErrViewDestroyed)
	return v.b
}

// signalExit closes exitCh exactly once, the core's shutdown and its
// destroyer goroutine can both try to close the same view
func (v *View) signalExit() bool {
	if !atomic.CompareAndSwapInt32(&v.exitFlag, 0, 1) {
		return false
	}
	close(v.exitCh)
	return true
}

func (v *View) monitor() {
	select {
	case reason := <-v.crashedCh:
		v.handleCrash(reason)
	case <-v.exitCh:
	}
}

func (v *View) handleCrash(reason string) {
	v.crashed.Store(true)
	v.loading.Store(false)
	atomic.StoreInt32(&v.resizingFlag, 0)
	v.failFutures(webview.ErrEngineCrashed)
	select {
	case v.resizeFrameCh <- struct{}{}:
	default:
	}
	log.Warn().Int64("view_id", v.id).Str("reason", reason).Msg("engine process gone")
	if listener := v.Listener(); listener != nil {
		listener.OnCrashed(v, reason)
	}
}

func (v *View) isDestroyed() bool {
	return atomic.LoadInt32(&v.destroyedFlag) == 1
}

func (v *View) isCrashed() bool {
	return v.crashed.Load().(bool)
}

// operable gates every protocol call
func (v *View) operable() error {
	if v.isDestroyed() {
		return webview.ErrViewDestroyed
	}
	if v.isCrashed() {
		return webview.ErrEngineCrashed
	}
	return nil
}

// SetListener replaces the event listener, nil unsubscribes
func (v *View) SetListener(listener webview.Listener) {
	v.listenerMu.Lock()
	v.listener = listener
	v.listenerMu.Unlock()
}

// Listener currently receiving events, nil when unset
func (v *View) Listener() webview.Listener {
	v.listenerMu.RLock()
	defer v.listenerMu.RUnlock()
	return v.listener
}

// SetResourceInterceptor replaces the request interceptor, nil
// uninstalls it
func (v *View) SetResourceInterceptor(interceptor webview.ResourceInterceptor) {
	v.interceptMu.Lock()
	v.interceptor = interceptor
	v.interceptMu.Unlock()
	if interceptor != nil {
		v.ensureGate()
	}
}

// ResourceInterceptor currently installed, nil when unset
func (v *View) ResourceInterceptor() webview.ResourceInterceptor {
	v.interceptMu.RLock()
	defer v.interceptMu.RUnlock()
	return v.interceptor
}

func (v *View) credentials() *webview.Credentials {
	v.credsMu.RLock()
	defer v.credsMu.RUnlock()
	return v.creds
}

// LoadURL navigates the main frame
func (v *View) LoadURL(ctx context.Context, url string) error {
	return v.LoadURLWithParams(ctx, &webview.LoadURLParams{URL: url})
}

// LoadURLWithParams navigates a named frame and optionally carries
// credentials for authentication challenges on the resulting requests
func (v *View) LoadURLWithParams(ctx context.Context, params *webview.LoadURLParams) error {
	if err := v.operable(); err != nil {
		return err
	}
	if params == nil || params.URL == "" {
		return errors.Wrap(ErrNavigating, "empty url")
	}

	v.credsMu.Lock()
	if params.Username != "" || params.Password != "" {
		v.creds = &webview.Credentials{Username: params.Username, Password: params.Password}
	} else {
		v.creds = nil
	}
	v.credsMu.Unlock()
	if params.Username != "" || params.Password != "" {
		v.ensureGate()
	}

	navParams := &gcdapi.PageNavigateParams{Url: params.URL, TransitionType: "typed"}
	if params.Frame != "" {
		frameID, err := v.frameIDByName(params.Frame)
		if err != nil {
			return err
		}
		navParams.FrameId = frameID
	}

	v.loading.Store(true)
	_, _, errText, err := v.t.Page.NavigateWithParams(navParams)
	if err != nil {
		v.loading.Store(false)
		return errors.Wrap(err, "navigating")
	}
	if errText != "" {
		v.loading.Store(false)
		return errors.Wrap(ErrNavigating, errText)
	}
	log.Ctx(ctx).Info().Int64("view_id", v.id).Str("url", params.URL).Msg("navigation started")
	return nil
}

// LoadHTML replaces the document of the target frame with html, the
// empty frame name addresses the main frame. Relative resources in the
// document resolve against the core's base directory.
func (v *View) LoadHTML(ctx context.Context, html, frame string) error {
	if err := v.operable(); err != nil {
		return err
	}
	frameID, err := v.frameIDByName(frame)
	if err != nil {
		return err
	}
	if _, err := v.t.Page.SetDocumentContent(frameID, withBaseHref(html, v.core.BaseDirectory())); err != nil {
		return errors.Wrap(err, "setting document content")
	}
	return nil
}

// withBaseHref injects a base element pointing at baseDir so relative
// resources in injected documents resolve there. Documents that carry
// their own base element are left alone.
func withBaseHref(html, baseDir string) string {
	if baseDir == "" || strings.Contains(strings.ToLower(html), "<base") {
		return html
	}
	base := fmt.Sprintf(`<base href="file://%s/">`, filepath.ToSlash(baseDir))
	lower := strings.ToLower(html)
	if i := strings.Index(lower, "<head>"); i != -1 {
		return html[:i+len("<head>")] + base + html[i+len("<head>"):]
	}
	return base + html
}

// LoadFile navigates to a file underneath the base directory
func (v *View) LoadFile(ctx context.Context, file, frame string) error {
	if err := v.operable(); err != nil {
		return err
	}
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.core.BaseDirectory(), path)
	}
	return v.LoadURLWithParams(ctx, &webview.LoadURLParams{URL: "file://" + filepath.ToSlash(path), Frame: frame})
}

// GoToHistoryOffset navigates relative to the current history entry,
// -1 is back and 1 is forward
func (v *View) GoToHistoryOffset(ctx context.Context, offset int) error {
	if err := v.operable(); err != nil {
		return err
	}
	idx, entries, err := v.t.Page.GetNavigationHistory()
	if err != nil {
		return errors.Wrap(err, "reading navigation history")
	}
	target := idx + offset
	if target < 0 || target >= len(entries) {
		return &InvalidHistoryOffsetErr{Offset: offset, Entries: len(entries)}
	}
	v.loading.Store(true)
	if _, err := v.t.Page.NavigateToHistoryEntry(entries[target].Id); err != nil {
		v.loading.Store(false)
		return errors.Wrap(err, "navigating history")
	}
	return nil
}

// Stop any in flight page load
func (v *View) Stop(ctx context.Context) error {
	if err := v.operable(); err != nil {
		return err
	}
	if _, err := v.t.Page.StopLoading(); err != nil {
		return errors.Wrap(err, "stopping load")
	}
	v.loading.Store(false)
	return nil
}

// Reload the current page
func (v *View) Reload(ctx context.Context) error {
	if err := v.operable(); err != nil {
		return err
	}
	v.loading.Store(true)
	if _, err := v.t.Page.Reload(false, ""); err != nil {
		v.loading.Store(false)
		return errors.Wrap(err, "reloading")
	}
	return nil
}

// IsLoadingPage reports whether the main frame is between navigation
// start and load completion
func (v *View) IsLoadingPage() bool {
	return v.loading.Load().(bool)
}

// URL of the main frame as of the last committed navigation
func (v *View) URL() string {
	v.addrMu.RLock()
	defer v.addrMu.RUnlock()
	return v.url
}

// Title as last reported by the page
func (v *View) Title() string {
	v.addrMu.RLock()
	defer v.addrMu.RUnlock()
	return v.title
}

// refreshFrames seeds the frame table from the engine
func (v *View) refreshFrames() error {
	tree, err := v.t.Page.GetFrameTree()
	if err != nil {
		return errors.Wrap(err, "reading frame tree")
	}
	v.frameMu.Lock()
	v.mainFrameID = tree.Frame.Id
	v.walkFrameTree(tree)
	v.frameMu.Unlock()

	v.addrMu.Lock()
	v.url = tree.Frame.Url
	v.addrMu.Unlock()
	return nil
}

// caller holds frameMu
func (v *View) walkFrameTree(tree *gcdapi.PageFrameTree) {
	v.frames[tree.Frame.Id] = &frameEntry{name: tree.Frame.Name, url: tree.Frame.Url, parentID: tree.Frame.ParentId}
	for _, child := range tree.ChildFrames {
		v.walkFrameTree(child)
	}
}

// frameIDByName maps a frame name to its id, the empty name means the
// main frame
func (v *View) frameIDByName(name string) (string, error) {
	v.frameMu.RLock()
	defer v.frameMu.RUnlock()
	if name == "" {
		if v.mainFrameID == "" {
			return "", webview.ErrFrameNotFound
		}
		return v.mainFrameID, nil
	}
	for id, entry := range v.frames {
		if entry.name == name {
			return id, nil
		}
	}
	return "", webview.ErrFrameNotFound
}

// contextIDByFrame maps a frame name to the execution context evaluate
// calls should target, 0 addresses the default context
func (v *View) contextIDByFrame(name string) (int, error) {
	if name == "" {
		return 0, nil
	}
	v.frameMu.RLock()
	defer v.frameMu.RUnlock()
	for id, entry := range v.frames {
		if entry.name == name {
			if contextID, ok := v.contexts[id]; ok {
				return contextID, nil
			}
			return 0, webview.ErrFrameNotFound
		}
	}
	return 0, webview.ErrFrameNotFound
}

func (v *View) isMainFrame(frameID string) bool {
	v.frameMu.RLock()
	defer v.frameMu.RUnlock()
	return frameID == v.mainFrameID
}

func (v *View) frameURL(frameID string) string {
	v.frameMu.RLock()
	defer v.frameMu.RUnlock()
	if entry, ok := v.frames[frameID]; ok {
		return entry.url
	}
	return ""
}

// SetURLFilteringMode switches how AddURLFilter patterns are applied
func (v *View) SetURLFilteringMode(mode webview.URLFilteringMode) {
	v.gate.SetFilteringMode(mode)
	v.ensureGate()
}

// AddURLFilter adds a wildcard pattern to the active filter set
func (v *View) AddURLFilter(filter string) {
	v.gate.AddFilter(filter)
	v.ensureGate()
}

// ClearAllURLFilters drops every filter pattern
func (v *View) ClearAllURLFilters() {
	v.gate.ClearAllFilters()
}

// SetHeaderDefinition registers a named set of header values for
// rewrite rules to reference
func (v *View) SetHeaderDefinition(name string, definition webview.HeaderDefinition) {
	v.gate.SetDefinition(name, definition)
}

// AddHeaderRewriteRule applies the named definition to requests whose
// URL matches the wildcard rule, earliest added rule wins
func (v *View) AddHeaderRewriteRule(rule, definitionName string) {
	v.gate.AddRewriteRule(rule, definitionName)
	v.ensureGate()
}

// RemoveHeaderRewriteRule removes rules with exactly this pattern
func (v *View) RemoveHeaderRewriteRule(rule string) {
	v.gate.RemoveRewriteRule(rule)
}

// RemoveHeaderRewriteRulesByDefinitionName removes rules bound to the
// named definition, the empty name removes every rule
func (v *View) RemoveHeaderRewriteRulesByDefinitionName(name string) {
	v.gate.RemoveRewriteRulesByDefinitionName(name)
}

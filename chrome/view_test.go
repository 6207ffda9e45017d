package chrome

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gitlab.com/offview/mock"
	"gitlab.com/offview/webview"
)

// newTestView builds a view with no engine behind it, enough for the
// paths that never issue protocol calls
func newTestView() *View {
	v := &View{
		id:            webview.GetViewID(),
		gate:          NewRequestGate(""),
		book:          newObjectBook(),
		crashedCh:     make(chan string),
		exitCh:        make(chan struct{}),
		frames:        make(map[string]*frameEntry),
		contexts:      make(map[string]int),
		futures:       make(map[*webview.FutureJSValue]struct{}),
		surface:       newSurface(),
		resizeFrameCh: make(chan struct{}, 1),
	}
	v.crashed.Store(false)
	v.loading.Store(false)
	return v
}

func testFrame(width, height int) *webview.RenderBuffer {
	return &webview.RenderBuffer{
		Buffer:  make([]byte, width*height*4),
		Width:   width,
		Height:  height,
		RowSpan: width * 4,
	}
}

var baseHrefInputs = []struct {
	name     string
	html     string
	baseDir  string
	expected string
}{
	{
		"head present",
		"<html><head><title>t</title></head><body></body></html>",
		"/srv/pages",
		`<html><head><base href="file:///srv/pages/"><title>t</title></head><body></body></html>`,
	},
	{
		"no head",
		"<p>bare</p>",
		"/srv/pages",
		`<base href="file:///srv/pages/"><p>bare</p>`,
	},
	{
		"document base wins",
		`<html><head><base href="http://a/"></head></html>`,
		"/srv/pages",
		`<html><head><base href="http://a/"></head></html>`,
	},
	{
		"no base directory",
		"<p>bare</p>",
		"",
		"<p>bare</p>",
	},
	{
		"uppercase head",
		"<HTML><HEAD></HEAD></HTML>",
		"/srv/pages",
		`<HTML><HEAD><base href="file:///srv/pages/"></HEAD></HTML>`,
	},
}

func TestWithBaseHref(t *testing.T) {
	for _, in := range baseHrefInputs {
		if got := withBaseHref(in.html, in.baseDir); got != in.expected {
			t.Fatalf("%s:\nexpected %s\ngot      %s\n", in.name, in.expected, got)
		}
	}
}

func TestViewSignalExitOnce(t *testing.T) {
	v := newTestView()

	won := int32(0)
	wg := &sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v.signalExit() {
				atomic.AddInt32(&won, 1)
			}
		}()
	}
	wg.Wait()

	if won != 1 {
		t.Fatalf("expected exactly one close of the exit channel, got %d\n", won)
	}
	select {
	case <-v.exitCh:
	default:
		t.Fatalf("exit channel not closed\n")
	}
}

func TestRenderNilAfterCrash(t *testing.T) {
	v := newTestView()
	v.surface.update(testFrame(4, 4))

	if v.Render() == nil {
		t.Fatalf("healthy view must hand out its frame\n")
	}

	v.surface.update(testFrame(4, 4))
	v.crashed.Store(true)
	if v.Render() != nil {
		t.Fatalf("crashed view must not hand out frames\n")
	}
}

func TestCrashFailsFutures(t *testing.T) {
	v := newTestView()
	listener := mock.MakeMockListener()
	v.SetListener(listener)

	future := webview.NewFutureJSValue()
	v.trackFuture(future)

	v.handleCrash("engine process gone")

	if !future.Ready() {
		t.Fatalf("outstanding future not resolved by the crash\n")
	}
	if _, err := future.Get(context.Background()); err != webview.ErrEngineCrashed {
		t.Fatalf("expected engine crashed, got: %v\n", err)
	}
	if !listener.OnCrashedCalled {
		t.Fatalf("listener not told about the crash\n")
	}
	if v.Render() != nil {
		t.Fatalf("crashed view must not hand out frames\n")
	}
}

func TestDestroyedViewFailsFuture(t *testing.T) {
	v := newTestView()
	atomic.StoreInt32(&v.destroyedFlag, 1)

	future := v.ExecuteJavascriptWithResult(context.Background(), "1+1", "")
	if !future.Ready() {
		t.Fatalf("destroyed view must resolve the future immediately\n")
	}
	if _, err := future.Get(context.Background()); err != webview.ErrViewDestroyed {
		t.Fatalf("expected view destroyed, got: %v\n", err)
	}
}

func TestResizeAlreadyPending(t *testing.T) {
	v := newTestView()
	atomic.StoreInt32(&v.resizingFlag, 1)

	if v.Resize(context.Background(), 800, 600, nil) {
		t.Fatalf("a second resize must report false while one is pending\n")
	}
}

var resizePlanInputs = []struct {
	name    string
	opts    *webview.ResizeOpts
	paused  bool
	wait    bool
	timeout time.Duration
}{
	{"defaults", nil, false, true, webview.DefaultRepaintTimeout},
	{"custom timeout", &webview.ResizeOpts{WaitForRepaint: true, RepaintTimeout: 2 * time.Second}, false, true, 2 * time.Second},
	{"no wait", &webview.ResizeOpts{WaitForRepaint: false}, false, false, webview.DefaultRepaintTimeout},
	{"paused never waits", nil, true, false, webview.DefaultRepaintTimeout},
	{"paused overrides opts", &webview.ResizeOpts{WaitForRepaint: true}, true, false, webview.DefaultRepaintTimeout},
}

func TestResizePlan(t *testing.T) {
	for _, in := range resizePlanInputs {
		v := newTestView()
		if in.paused {
			atomic.StoreInt32(&v.pausedFlag, 1)
		}
		wait, timeout := v.resizePlan(in.opts)
		if wait != in.wait || timeout != in.timeout {
			t.Fatalf("%s: expected wait=%t timeout=%s got wait=%t timeout=%s\n", in.name, in.wait, in.timeout, wait, timeout)
		}
	}
}

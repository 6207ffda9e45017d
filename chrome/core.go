package chrome

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wirepair/gcd"
	"gitlab.com/offview/profile"
	"gitlab.com/offview/webview"
)

var startupFlags = []string{
	"--enable-automation",
	"--enable-features=NetworkService",
	"--test-type",
	"--disable-client-side-phishing-detection",
	"--disable-component-update",
	"--disable-infobars",
	"--disable-ntp-popular-sites",
	"--disable-ntp-most-likely-favicons-from-server",
	"--disable-sync-app-list",
	"--disable-domain-reliability",
	"--disable-background-networking",
	"--disable-sync",
	"--disable-new-browser-first-run",
	"--disable-default-apps",
	"--disable-popup-blocking",
	"--disable-extensions",
	"--disable-features=TranslateUI",
	"--disable-gpu",
	"--disable-dev-shm-usage",
	"--no-sandbox",
	"--allow-running-insecure-content",
	"--no-first-run",
	"--window-size=1024,768",
	"--safebrowsing-disable-auto-update",
	"--safebrowsing-disable-download-protection",
	"--password-store=basic",
	"--headless",
	"about:blank",
}

// WebCore owns the engine process pool behind views. It constructs
// views, performs the teardown queued by View.Destroy and carries the
// base directory plus the optional profile store shared by its views.
type WebCore struct {
	cfg              *webview.Config
	leaser           LeaserService
	browsers         chan *gcd.Gcd
	maxViews         int
	acquiredBrowsers int32
	acquireErrors    int32
	startCount       int32
	closing          int32
	leaseTimeout     time.Duration
	baseDir          string
	store            *profile.Store
	viewMu           sync.Mutex
	views            map[int64]*View
	destroyCh        chan *View
	exitCh           chan struct{}
}

// NewWebCore with a local leaser configured from cfg
func NewWebCore(cfg *webview.Config) *WebCore {
	leaser := NewLocalLeaser()
	if cfg.ChromePath != "" {
		leaser.SetBinary(cfg.ChromePath)
	}
	if len(cfg.ChromeFlags) > 0 {
		leaser.SetExtraFlags(cfg.ChromeFlags)
	}
	return NewWebCoreWithLeaser(cfg, leaser)
}

// NewWebCoreWithLeaser for callers that lease engine instances their
// own way
func NewWebCoreWithLeaser(cfg *webview.Config, leaser LeaserService) *WebCore {
	c := &WebCore{cfg: cfg, leaser: leaser}
	c.maxViews = cfg.NumViews
	if c.maxViews <= 0 {
		c.maxViews = 1
	}
	c.leaseTimeout = cfg.LeaseTimeout
	if c.leaseTimeout == 0 {
		c.leaseTimeout = time.Second * 45
	}
	c.browsers = make(chan *gcd.Gcd, c.maxViews)
	c.views = make(map[int64]*View)
	c.destroyCh = make(chan *View, c.maxViews)
	c.exitCh = make(chan struct{})
	return c
}

// Init cleans up stray engine processes, starts the pool, opens the
// profile store when configured and launches the destroyer
func (c *WebCore) Init(ctx context.Context) error {
	if _, err := c.leaser.Cleanup(); err != nil {
		return err
	}

	if c.cfg.BaseDirectory != "" {
		abs, err := filepath.Abs(c.cfg.BaseDirectory)
		if err != nil {
			return errors.Wrap(err, "resolving base directory")
		}
		c.baseDir = abs
	}

	if c.cfg.DataPath != "" {
		name := c.cfg.Profile
		if name == "" {
			name = "default"
		}
		c.store = profile.NewStore(c.cfg.DataPath, name)
		if err := c.store.Init(); err != nil {
			return errors.Wrap(err, "opening profile store")
		}
	}

	go c.destroyer()
	return c.start()
}

// viewSize falls back to the configured default size, then to
// 1024x768, when a caller passes no dimensions
func (c *WebCore) viewSize(width, height int) (int, int) {
	if width <= 0 {
		width = c.cfg.DefaultWidth
	}
	if height <= 0 {
		height = c.cfg.DefaultHeight
	}
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 768
	}
	return width, height
}

// BaseDirectory that LoadFile and local:// rules resolve against
func (c *WebCore) BaseDirectory() string {
	return c.baseDir
}

// Store is the profile store, nil when persistence is disabled
func (c *WebCore) Store() *profile.Store {
	return c.store
}

// start the pool with fresh engine instances
func (c *WebCore) start() error {
	// allow 3 seconds per instance
	timeoutCtx, cancel := context.WithTimeout(context.Background(), time.Second*time.Duration(c.maxViews*3))
	defer cancel()

	log.Info().Int("views", c.maxViews).Msg("creating engine instances")
	c.browsers = make(chan *gcd.Gcd, c.maxViews)

	atomic.AddInt32(&c.startCount, 1)
	currentCount := atomic.LoadInt32(&c.startCount)
	for i := 0; i < c.maxViews; i++ {
		c.returnBrowser(timeoutCtx, nil, currentCount) // passing nil will just create a new one for us
		log.Info().Int("i", i).Msg("engine instance created")
	}

	time.Sleep(time.Second * 2) // give time for the instances to settle
	return nil
}

// acquire an engine instance, unless ctx expired. Expiries count
// towards a restart of the whole pool.
func (c *WebCore) acquire(ctx context.Context) *gcd.Gcd {
	select {
	case browser := <-c.browsers:
		if browser != nil {
			atomic.AddInt32(&c.acquiredBrowsers, 1)
		}
		return browser
	case <-ctx.Done():
		log.Warn().Err(ctx.Err()).Msg("failed to acquire engine instance from pool")
		atomic.AddInt32(&c.acquireErrors, 1)
		c.shouldRestart()
		return nil
	}
}

// Closing a channel that may be being read will cause a panic, which is
// fine because then we just restart anyways
func (c *WebCore) shouldRestart() {
	acquired := atomic.LoadInt32(&c.acquiredBrowsers)
	errored := atomic.LoadInt32(&c.acquireErrors)
	count, _ := c.leaser.Count()
	log.Warn().Int32("acquired", acquired).Int32("errored", errored).Str("leaser_count", count).Msg("force restarting due to failure to acquire instances")

	// flag as shutting down and clear out errors
	atomic.StoreInt32(&c.closing, 1)
	atomic.StoreInt32(&c.acquiredBrowsers, 0)
	atomic.StoreInt32(&c.acquireErrors, 0)

	// empty pool
	for {
		select {
		case <-c.browsers:
			log.Info().Msg("emptying instance pool")
		default:
			goto EMPTY
		}
	}
EMPTY:
	time.Sleep(1 * time.Second)
	log.Info().Msg("calling restart")
	if _, err := c.leaser.Cleanup(); err != nil {
		panic("failed to clean up engine instances")
	}
	if err := c.start(); err != nil {
		panic("restarting due to failure to restart engine instances")
	}
	atomic.StoreInt32(&c.closing, 0)
}

func (c *WebCore) returnBrowser(ctx context.Context, browser *gcd.Gcd, startCount int32) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()
	doneCh := make(chan struct{})

	go c.closeAndCreateBrowser(browser, doneCh, startCount)

	select {
	case <-timeoutCtx.Done():
		log.Error().Msg("failed to closeAndCreateBrowser in time")
	case <-doneCh:
		return
	}
}

// closeAndCreateBrowser takes an optional instance to close, and
// creates a new one, closing doneCh to signal it completed (although it
// may be a nil instance if an error occurred).
func (c *WebCore) closeAndCreateBrowser(browser *gcd.Gcd, doneCh chan struct{}, startCount int32) {
	if browser != nil {
		if err := c.leaser.Return(browser.Port()); err != nil {
			log.Error().Err(err).Msg("failed to return engine instance")
		}
		atomic.AddInt32(&c.acquiredBrowsers, -1)
	}

	// if we've restarted and this instance was still leased, we don't
	// want to create another one
	currentCount := atomic.LoadInt32(&c.startCount)
	if currentCount != startCount {
		close(doneCh)
		return
	}

	browser = gcd.NewChromeDebugger()
	port, err := c.leaser.Acquire()
	if err != nil {
		log.Warn().Err(err).Msg("unable to acquire new engine instance")
		c.browsers <- nil
		close(doneCh)
		return
	}

	if err := browser.ConnectToInstance("localhost", string(port)); err != nil {
		log.Warn().Err(err).Msg("failed to connect to instance")
		browser = nil
	}

	c.browsers <- browser
	close(doneCh)
}

// CreateView leases an engine instance and attaches a live view to it.
// Zero dimensions fall back to the configured defaults.
func (c *WebCore) CreateView(ctx context.Context, width, height int) (webview.View, error) {
	if atomic.LoadInt32(&c.closing) == 1 {
		return nil, ErrEngineClosing
	}
	width, height = c.viewSize(width, height)

	timeoutCtx, cancel := context.WithTimeout(ctx, c.leaseTimeout)
	defer cancel()

	browser := c.acquire(timeoutCtx)
	if browser == nil {
		return nil, ErrAcquireFailed
	}

	tab, err := browser.GetFirstTab()
	if err != nil {
		c.releaseBrowser(ctx, browser)
		return nil, errors.Wrap(err, "attaching to engine tab")
	}

	v, err := NewView(ctx, c, browser, tab, width, height)
	if err != nil {
		c.releaseBrowser(ctx, browser)
		return nil, err
	}

	c.viewMu.Lock()
	c.views[v.ID()] = v
	c.viewMu.Unlock()

	log.Ctx(ctx).Info().Int64("view_id", v.ID()).Int32("acquired", atomic.LoadInt32(&c.acquiredBrowsers)).Msg("created view")
	return v, nil
}

// queueDestroy is called by View.Destroy, teardown happens on the
// destroyer goroutine
func (c *WebCore) queueDestroy(v *View) {
	select {
	case c.destroyCh <- v:
	case <-c.exitCh:
	}
}

func (c *WebCore) destroyer() {
	for {
		select {
		case v := <-c.destroyCh:
			c.teardownView(context.Background(), v)
		case <-c.exitCh:
			return
		}
	}
}

func (c *WebCore) teardownView(ctx context.Context, v *View) {
	c.viewMu.Lock()
	delete(c.views, v.ID())
	c.viewMu.Unlock()

	browser := v.close()
	if browser != nil {
		c.releaseBrowser(ctx, browser)
	}
	log.Ctx(ctx).Info().Int64("view_id", v.ID()).Msg("view destroyed")
}

// releaseBrowser returns an instance for destruction and replacement
func (c *WebCore) releaseBrowser(ctx context.Context, browser *gcd.Gcd) {
	startCount := atomic.LoadInt32(&c.startCount) // track if we've restarted so we can throw away bad instances
	c.returnBrowser(ctx, browser, startCount)
}

// Shutdown tears down every live view, releases all engine instances
// and closes the profile store
func (c *WebCore) Shutdown(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&c.closing, 0, 1) {
		return nil
	}
	close(c.exitCh)

	c.viewMu.Lock()
	views := make([]*View, 0, len(c.views))
	for _, v := range c.views {
		views = append(views, v)
	}
	c.views = make(map[int64]*View)
	c.viewMu.Unlock()

	for _, v := range views {
		if browser := v.close(); browser != nil {
			if err := c.leaser.Return(browser.Port()); err != nil {
				log.Error().Err(err).Msg("failed to return engine instance")
			}
		}
	}

	for {
		select {
		case browser := <-c.browsers:
			if browser != nil {
				if err := c.leaser.Return(browser.Port()); err != nil {
					log.Error().Err(err).Msg("failed to return engine instance")
				}
			}
		default:
			if c.store != nil {
				return c.store.Close()
			}
			return ctx.Err()
		}
	}
}

package clicmds

import (
	"context"
	"image"
	"image/png"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gitlab.com/offview/chrome"
	"gitlab.com/offview/webview"
)

func OpenFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "url",
			Usage: "url to open",
			Value: "http://localhost/",
		},
		&cli.StringFlag{
			Name:  "policy",
			Usage: "request policy file to apply",
			Value: "",
		},
		&cli.StringFlag{
			Name:  "datadir",
			Usage: "profile data directory, empty disables persistence",
			Value: "",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "profile name",
			Value: "default",
		},
		&cli.StringFlag{
			Name:  "basedir",
			Usage: "directory local files resolve against",
			Value: "",
		},
		&cli.StringFlag{
			Name:  "chrome",
			Usage: "engine binary, auto discovered when empty",
			Value: "",
		},
		&cli.StringFlag{
			Name:  "script",
			Usage: "script to evaluate once the document is ready",
			Value: "",
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "file to write the rendered frame to",
			Value: "offview.png",
		},
		&cli.IntFlag{
			Name:  "width",
			Usage: "view width",
			Value: 1024,
		},
		&cli.IntFlag{
			Name:  "height",
			Usage: "view height",
			Value: 768,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "how long to wait for the page to become ready",
			Value: time.Second * 30,
		},
	}
}

// readyListener signals the first document ready, everything else is
// just logged
type readyListener struct {
	readyCh chan struct{}
	crashCh chan string
}

func newReadyListener() *readyListener {
	return &readyListener{readyCh: make(chan struct{}, 1), crashCh: make(chan string, 1)}
}

func (l *readyListener) OnBeginNavigation(view webview.View, evt *webview.NavigationEvent) {
	log.Info().Str("url", evt.URL).Bool("main", evt.IsMainFrame).Msg("navigation started")
}

func (l *readyListener) OnFinishLoading(view webview.View, evt *webview.NavigationEvent) {
	log.Info().Str("url", evt.URL).Bool("main", evt.IsMainFrame).Msg("frame loaded")
}

func (l *readyListener) OnDocumentReady(view webview.View, url string) {
	select {
	case l.readyCh <- struct{}{}:
	default:
	}
}

func (l *readyListener) OnTitleChange(view webview.View, title string) {
	log.Info().Str("title", title).Msg("title changed")
}

func (l *readyListener) OnAddressChange(view webview.View, url string) {
	log.Info().Str("url", url).Msg("address changed")
}

func (l *readyListener) OnScriptCallback(view webview.View, evt *webview.ScriptCallbackEvent) {
	log.Info().Str("object", evt.Object).Str("callback", evt.Callback).Msg("script callback")
}

func (l *readyListener) OnCrashed(view webview.View, reason string) {
	select {
	case l.crashCh <- reason:
	default:
	}
}

func (l *readyListener) OnConsoleMessage(view webview.View, evt *webview.ConsoleEvent) {
	log.Debug().Str("level", evt.Level).Str("text", evt.Text).Msg("console")
}

// Open runs a single view against a url, applies an optional request
// policy, evaluates an optional script and writes the rendered frame
// out as a png
func Open(cliCtx *cli.Context) error {
	cfg := &webview.Config{
		ChromePath:    cliCtx.String("chrome"),
		BaseDirectory: cliCtx.String("basedir"),
		DataPath:      cliCtx.String("datadir"),
		Profile:       cliCtx.String("profile"),
		NumViews:      1,
	}

	core := chrome.NewWebCore(cfg)
	ctx := context.Background()
	if err := core.Init(ctx); err != nil {
		log.Error().Err(err).Msg("failed to init engine")
		return err
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Ctrl-C Pressed, shutting down")
		if err := core.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("failed to shut down engine")
		}
		os.Exit(1)
	}()

	err := openView(ctx, cliCtx, core)
	if shutdownErr := core.Shutdown(ctx); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}

func openView(ctx context.Context, cliCtx *cli.Context, core *chrome.WebCore) error {
	view, err := core.CreateView(ctx, cliCtx.Int("width"), cliCtx.Int("height"))
	if err != nil {
		return err
	}
	defer view.Destroy()

	listener := newReadyListener()
	view.SetListener(listener)

	if policyFile := cliCtx.String("policy"); policyFile != "" {
		policy, err := LoadPolicy(policyFile)
		if err != nil {
			return err
		}
		if err := policy.Apply(view); err != nil {
			return err
		}
		log.Info().Str("policy", policy.Name).Msg("applied request policy")
	}

	if err := view.LoadURL(ctx, cliCtx.String("url")); err != nil {
		return err
	}

	select {
	case <-listener.readyCh:
	case reason := <-listener.crashCh:
		return errors.Errorf("engine crashed: %s", reason)
	case <-time.After(cliCtx.Duration("timeout")):
		return errors.New("timed out waiting for the page")
	}

	if script := cliCtx.String("script"); script != "" {
		future := view.ExecuteJavascriptWithResult(ctx, script, "")
		evalCtx, cancel := context.WithTimeout(ctx, cliCtx.Duration("timeout"))
		defer cancel()
		value, err := future.Get(evalCtx)
		if err != nil {
			return err
		}
		log.Info().Str("result", value.ToString()).Msg("script evaluated")
	}

	return writeSnapshot(view, cliCtx.String("out"))
}

// writeSnapshot renders the latest frame to a png file
func writeSnapshot(view webview.View, out string) error {
	frame := view.Render()
	if frame == nil {
		return errors.New("no frame to snapshot")
	}

	img := image.NewNRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			src := y*frame.RowSpan + x*4
			dst := img.PixOffset(x, y)
			img.Pix[dst] = frame.Buffer[src+2]
			img.Pix[dst+1] = frame.Buffer[src+1]
			img.Pix[dst+2] = frame.Buffer[src]
			img.Pix[dst+3] = frame.Buffer[src+3]
		}
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}
	log.Info().Str("file", out).Int("width", frame.Width).Int("height", frame.Height).Msg("snapshot written")
	return nil
}

package chrome

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wirepair/gcd/gcdapi"
	"gitlab.com/offview/webview"
)

// InjectMouseMove moves the pointer to x, y in view coordinates. The
// position sticks, button and wheel events fire at the last moved to
// position.
func (v *View) InjectMouseMove(ctx context.Context, x, y int) error {
	if err := v.operable(); err != nil {
		return err
	}
	atomic.StoreInt32(&v.mouseX, int32(x))
	atomic.StoreInt32(&v.mouseY, int32(y))
	return v.dispatchMouse(&gcdapi.InputDispatchMouseEventParams{
		TheType: "mouseMoved",
		X:       float64(x),
		Y:       float64(y),
		Button:  "none",
	})
}

// InjectMouseDown presses button at the current pointer position
func (v *View) InjectMouseDown(ctx context.Context, button webview.MouseButton) error {
	if err := v.operable(); err != nil {
		return err
	}
	return v.dispatchMouse(&gcdapi.InputDispatchMouseEventParams{
		TheType:    "mousePressed",
		X:          float64(atomic.LoadInt32(&v.mouseX)),
		Y:          float64(atomic.LoadInt32(&v.mouseY)),
		Button:     button.String(),
		ClickCount: 1,
	})
}

// InjectMouseUp releases button at the current pointer position
func (v *View) InjectMouseUp(ctx context.Context, button webview.MouseButton) error {
	if err := v.operable(); err != nil {
		return err
	}
	return v.dispatchMouse(&gcdapi.InputDispatchMouseEventParams{
		TheType:    "mouseReleased",
		X:          float64(atomic.LoadInt32(&v.mouseX)),
		Y:          float64(atomic.LoadInt32(&v.mouseY)),
		Button:     button.String(),
		ClickCount: 1,
	})
}

// InjectMouseWheel scrolls at the current pointer position, positive
// amounts scroll up
func (v *View) InjectMouseWheel(ctx context.Context, scrollAmount int) error {
	if err := v.operable(); err != nil {
		return err
	}
	return v.dispatchMouse(&gcdapi.InputDispatchMouseEventParams{
		TheType: "mouseWheel",
		X:       float64(atomic.LoadInt32(&v.mouseX)),
		Y:       float64(atomic.LoadInt32(&v.mouseY)),
		Button:  "none",
		DeltaY:  -float64(scrollAmount),
	})
}

func (v *View) dispatchMouse(params *gcdapi.InputDispatchMouseEventParams) error {
	if _, err := v.t.Input.DispatchMouseEventWithParams(params); err != nil {
		return errors.Wrap(err, "dispatching mouse event")
	}
	return nil
}

// InjectKeyboardEvent forwards a raw keyboard event. Printable input
// needs the usual down, char, up triple.
func (v *View) InjectKeyboardEvent(ctx context.Context, event *webview.KeyEvent) error {
	if err := v.operable(); err != nil {
		return err
	}
	if event == nil {
		return errors.New("missing key event")
	}

	var theType string
	switch event.Type {
	case webview.KeyDown:
		theType = "rawKeyDown"
	case webview.KeyUp:
		theType = "keyUp"
	case webview.KeyChar:
		theType = "char"
	default:
		return errors.Errorf("unknown key event type %d", event.Type)
	}

	params := &gcdapi.InputDispatchKeyEventParams{
		TheType:               theType,
		Modifiers:             event.Modifiers,
		Text:                  event.Text,
		UnmodifiedText:        event.UnmodifiedText,
		WindowsVirtualKeyCode: event.VirtualKeyCode,
		NativeVirtualKeyCode:  event.NativeKeyCode,
		IsSystemKey:           event.IsSystemKey,
	}
	if _, err := v.t.Input.DispatchKeyEventWithParams(params); err != nil {
		return errors.Wrap(err, "dispatching key event")
	}
	return nil
}

// Cut the current selection to the clipboard
func (v *View) Cut(ctx context.Context) error {
	return v.editCommand(ctx, "cut")
}

// Copy the current selection to the clipboard
func (v *View) Copy(ctx context.Context) error {
	return v.editCommand(ctx, "copy")
}

// Paste the clipboard at the focused element
func (v *View) Paste(ctx context.Context) error {
	return v.editCommand(ctx, "paste")
}

// SelectAll of the focused document
func (v *View) SelectAll(ctx context.Context) error {
	return v.editCommand(ctx, "selectAll")
}

func (v *View) editCommand(ctx context.Context, command string) error {
	if err := v.operable(); err != nil {
		return err
	}
	_, err := v.evaluate(ctx, fmt.Sprintf("document.execCommand(%q);", command), 0, false)
	return err
}

// SetZoom scales the page, zoomPercent is clamped to the allowed range.
// The choice is remembered for the current host when the core has a
// profile store.
func (v *View) SetZoom(ctx context.Context, zoomPercent int) error {
	if err := v.operable(); err != nil {
		return err
	}
	if zoomPercent < webview.MinZoomPercent {
		zoomPercent = webview.MinZoomPercent
	}
	if zoomPercent > webview.MaxZoomPercent {
		zoomPercent = webview.MaxZoomPercent
	}
	if err := v.applyZoom(zoomPercent); err != nil {
		return err
	}

	if store := v.core.Store(); store != nil {
		if parsed, err := url.Parse(v.URL()); err == nil && parsed.Hostname() != "" {
			if err := store.SaveZoom(parsed.Hostname(), zoomPercent); err != nil {
				log.Warn().Err(err).Str("host", parsed.Hostname()).Msg("unable to remember zoom")
			}
		}
	}
	return nil
}

// ResetZoom restores the default zoom and forgets the host preference
func (v *View) ResetZoom(ctx context.Context) error {
	if err := v.operable(); err != nil {
		return err
	}
	if err := v.applyZoom(webview.DefaultZoomPercent); err != nil {
		return err
	}

	if store := v.core.Store(); store != nil {
		if parsed, err := url.Parse(v.URL()); err == nil && parsed.Hostname() != "" {
			if err := store.DeleteZoom(parsed.Hostname()); err != nil {
				log.Warn().Err(err).Str("host", parsed.Hostname()).Msg("unable to forget zoom")
			}
		}
	}
	return nil
}

func (v *View) applyZoom(zoomPercent int) error {
	if _, err := v.t.Emulation.SetPageScaleFactor(float64(zoomPercent) / 100); err != nil {
		return errors.Wrap(err, "applying zoom")
	}
	atomic.StoreInt32(&v.zoom, int32(zoomPercent))
	return nil
}

// Focus gives the view keyboard focus
func (v *View) Focus(ctx context.Context) error {
	return v.setFocus(ctx, true)
}

// Unfocus takes keyboard focus away
func (v *View) Unfocus(ctx context.Context) error {
	return v.setFocus(ctx, false)
}

func (v *View) setFocus(ctx context.Context, focused bool) error {
	if err := v.operable(); err != nil {
		return err
	}
	if _, err := v.t.Emulation.SetFocusEmulationEnabled(focused); err != nil {
		return errors.Wrap(err, "setting focus")
	}
	return nil
}

// SetTransparent composites the page over a transparent background
// instead of the default white
func (v *View) SetTransparent(ctx context.Context, transparent bool) error {
	if err := v.operable(); err != nil {
		return err
	}
	params := &gcdapi.EmulationSetDefaultBackgroundColorOverrideParams{}
	if transparent {
		params.Color = &gcdapi.DOMRGBA{R: 0, G: 0, B: 0, A: 0}
	}
	if _, err := v.t.Emulation.SetDefaultBackgroundColorOverrideWithParams(params); err != nil {
		return errors.Wrap(err, "setting background")
	}
	return nil
}

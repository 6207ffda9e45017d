package chrome

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wirepair/gcd/gcdapi"
	"gitlab.com/offview/webview"
)

// surface holds the latest composed frame and the damage accumulated
// since the last Render call
type surface struct {
	mu       sync.Mutex
	buf      *webview.RenderBuffer
	dirty    webview.Rect
	hasDirty bool
}

func newSurface() *surface {
	return &surface{}
}

func (s *surface) update(frame *webview.RenderBuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	damage := diffFrames(s.buf, frame)
	s.buf = frame
	if damage.IsEmpty() {
		return
	}
	if s.hasDirty {
		s.dirty = s.dirty.Union(damage)
	} else {
		s.dirty = damage
		s.hasDirty = true
	}
}

// take returns the current frame and clears the damage
func (s *surface) take() *webview.RenderBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasDirty = false
	s.dirty = webview.Rect{}
	return s.buf
}

func (s *surface) isDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasDirty
}

func (s *surface) dirtyBounds() webview.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// diffFrames returns the bounding box of pixels that differ between two
// frames. A size change or missing previous frame damages everything.
func diffFrames(previous, next *webview.RenderBuffer) webview.Rect {
	if next == nil {
		return webview.Rect{}
	}
	if previous == nil || previous.Width != next.Width || previous.Height != next.Height {
		return webview.Rect{Width: next.Width, Height: next.Height}
	}

	minX, minY := next.Width, next.Height
	maxX, maxY := -1, -1
	for y := 0; y < next.Height; y++ {
		rowStart := y * next.RowSpan
		rowEnd := rowStart + next.Width*4
		if bytes.Equal(next.Buffer[rowStart:rowEnd], previous.Buffer[rowStart:rowEnd]) {
			continue
		}
		for x := 0; x < next.Width; x++ {
			o := rowStart + x*4
			if next.Buffer[o] == previous.Buffer[o] &&
				next.Buffer[o+1] == previous.Buffer[o+1] &&
				next.Buffer[o+2] == previous.Buffer[o+2] &&
				next.Buffer[o+3] == previous.Buffer[o+3] {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			maxY = y
		}
	}
	if maxX < 0 {
		return webview.Rect{}
	}
	return webview.Rect{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
}

// decodeFrame turns a screencast payload into a BGRA buffer
func decodeFrame(data string) (*webview.RenderBuffer, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrap(err, "decoding frame")
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "decoding frame image")
	}
	return imageToBGRA(img), nil
}

func imageToBGRA(img image.Image) *webview.RenderBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := make([]byte, w*h*4)

	switch src := img.(type) {
	case *image.NRGBA:
		copyRGBARows(buf, src.Pix, src.Stride, w, h)
	case *image.RGBA:
		copyRGBARows(buf, src.Pix, src.Stride, w, h)
	default:
		i := 0
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, a := img.At(x, y).RGBA()
				buf[i] = byte(b >> 8)
				buf[i+1] = byte(g >> 8)
				buf[i+2] = byte(r >> 8)
				buf[i+3] = byte(a >> 8)
				i += 4
			}
		}
	}
	return &webview.RenderBuffer{Buffer: buf, Width: w, Height: h, RowSpan: w * 4}
}

// copyRGBARows swaps the red and blue channels row by row
func copyRGBARows(dst, src []byte, stride, w, h int) {
	for y := 0; y < h; y++ {
		srcRow := src[y*stride : y*stride+w*4]
		dstRow := dst[y*w*4 : (y+1)*w*4]
		for x := 0; x < w*4; x += 4 {
			dstRow[x] = srcRow[x+2]
			dstRow[x+1] = srcRow[x+1]
			dstRow[x+2] = srcRow[x]
			dstRow[x+3] = srcRow[x+3]
		}
	}
}

func (v *View) startScreencast() error {
	params := &gcdapi.PageStartScreencastParams{
		Format:        "png",
		Quality:       100,
		MaxWidth:      int(atomic.LoadInt32(&v.width)),
		MaxHeight:     int(atomic.LoadInt32(&v.height)),
		EveryNthFrame: 1,
	}
	if _, err := v.t.Page.StartScreencastWithParams(params); err != nil {
		return errors.Wrap(err, "starting render feed")
	}
	return nil
}

func (v *View) stopScreencast() {
	if _, err := v.t.Page.StopScreencast(); err != nil {
		log.Debug().Err(err).Int64("view_id", v.id).Msg("unable to stop render feed")
	}
}

func (v *View) applyMetrics(width, height int) error {
	params := &gcdapi.EmulationSetDeviceMetricsOverrideParams{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}
	if _, err := v.t.Emulation.SetDeviceMetricsOverrideWithParams(params); err != nil {
		return errors.Wrap(err, "applying view metrics")
	}
	return nil
}

func (v *View) handleScreencastFrame(data string, metadata *gcdapi.PageScreencastFrameMetadata) {
	if atomic.LoadInt32(&v.pausedFlag) == 1 {
		return
	}
	frame, err := decodeFrame(data)
	if err != nil {
		log.Warn().Err(err).Int64("view_id", v.id).Msg("dropping undecodable frame")
		return
	}
	v.surface.update(frame)

	if atomic.LoadInt32(&v.resizingFlag) == 1 &&
		frame.Width == int(atomic.LoadInt32(&v.width)) &&
		frame.Height == int(atomic.LoadInt32(&v.height)) {
		select {
		case v.resizeFrameCh <- struct{}{}:
		default:
		}
	}
}

// IsDirty reports whether the page repainted since the last Render
func (v *View) IsDirty() bool {
	if v.isDestroyed() || v.isCrashed() {
		return false
	}
	return v.surface.isDirty()
}

// DirtyBounds is the bounding box of damage since the last Render
func (v *View) DirtyBounds() webview.Rect {
	return v.surface.dirtyBounds()
}

// Render returns the latest frame and clears the dirty state, nil when
// no frame arrived yet or the engine is gone
func (v *View) Render() *webview.RenderBuffer {
	if v.isDestroyed() || v.isCrashed() {
		return nil
	}
	return v.surface.take()
}

// PauseRendering stops the frame feed, frames produced while paused are
// discarded
func (v *View) PauseRendering(ctx context.Context) error {
	if err := v.operable(); err != nil {
		return err
	}
	if !atomic.CompareAndSwapInt32(&v.pausedFlag, 0, 1) {
		return nil
	}
	v.stopScreencast()
	return nil
}

// ResumeRendering restarts the frame feed after PauseRendering
func (v *View) ResumeRendering(ctx context.Context) error {
	if err := v.operable(); err != nil {
		return err
	}
	if !atomic.CompareAndSwapInt32(&v.pausedFlag, 1, 0) {
		return nil
	}
	return v.startScreencast()
}

// Resize changes the page metrics. When opts ask for a repaint this
// blocks until a frame at the new size arrived or the timeout passed,
// reporting false on timeout, concurrent resize or a dead engine.
// A view with rendering paused resizes without waiting, paused views
// produce no frames to wait on.
func (v *View) Resize(ctx context.Context, width, height int, opts *webview.ResizeOpts) bool {
	if v.operable() != nil {
		return false
	}
	if width <= 0 || height <= 0 {
		return false
	}
	if !atomic.CompareAndSwapInt32(&v.resizingFlag, 0, 1) {
		return false
	}
	defer atomic.StoreInt32(&v.resizingFlag, 0)

	atomic.StoreInt32(&v.width, int32(width))
	atomic.StoreInt32(&v.height, int32(height))

	// drop a stale signal from a previous resize
	select {
	case <-v.resizeFrameCh:
	default:
	}

	if err := v.applyMetrics(width, height); err != nil {
		log.Warn().Err(err).Int64("view_id", v.id).Msg("resize failed")
		return false
	}
	if atomic.LoadInt32(&v.pausedFlag) == 0 {
		// restart the feed so frame caps track the new size
		v.stopScreencast()
		if err := v.startScreencast(); err != nil {
			log.Warn().Err(err).Int64("view_id", v.id).Msg("resize failed")
			return false
		}
	}

	wait, timeout := v.resizePlan(opts)
	if !wait {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-v.resizeFrameCh:
		return !v.isCrashed()
	case <-timer.C:
		return false
	case <-v.exitCh:
		return false
	case <-ctx.Done():
		return false
	}
}

// resizePlan decides whether Resize waits for a repaint and for how long
func (v *View) resizePlan(opts *webview.ResizeOpts) (bool, time.Duration) {
	wait := true
	timeout := webview.DefaultRepaintTimeout
	if opts != nil {
		wait = opts.WaitForRepaint
		if opts.RepaintTimeout > 0 {
			timeout = opts.RepaintTimeout
		}
	}
	if atomic.LoadInt32(&v.pausedFlag) == 1 {
		// paused views drop every frame, a wait would only burn the timeout
		wait = false
	}
	return wait, timeout
}

// IsResizing reports whether a Resize is still waiting on the engine
func (v *View) IsResizing() bool {
	return atomic.LoadInt32(&v.resizingFlag) == 1
}

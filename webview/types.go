package webview

// MouseButton identifies which button a mouse event refers to
type MouseButton int8

const (
	MouseLeft MouseButton = iota
	MouseMiddle
	MouseRight
)

func (b MouseButton) String() string {
	switch b {
	case MouseMiddle:
		return "middle"
	case MouseRight:
		return "right"
	}
	return "left"
}

// URLFilteringMode controls how URL filter rules are applied to
// resource requests
type URLFilteringMode int8

const (
	// FilterNone disables filtering, all requests are allowed
	FilterNone URLFilteringMode = iota
	// FilterBlacklist allows all requests except those matching a filter rule
	FilterBlacklist
	// FilterWhitelist denies all requests except those matching a filter rule
	FilterWhitelist
)

func (m URLFilteringMode) String() string {
	switch m {
	case FilterBlacklist:
		return "blacklist"
	case FilterWhitelist:
		return "whitelist"
	}
	return "none"
}

// ParseURLFilteringMode is the inverse of String, ok is false for an
// unknown mode name
func ParseURLFilteringMode(mode string) (URLFilteringMode, bool) {
	switch mode {
	case "", "none":
		return FilterNone, true
	case "blacklist":
		return FilterBlacklist, true
	case "whitelist":
		return FilterWhitelist, true
	}
	return FilterNone, false
}

// HeaderDefinition is a named, reusable mapping of HTTP header names to
// values, applied to outgoing requests that match a rewrite rule
type HeaderDefinition map[string]string

// Copy so rule books can hand out definitions without sharing the map
func (h HeaderDefinition) Copy() HeaderDefinition {
	if h == nil {
		return nil
	}
	c := make(HeaderDefinition, len(h))
	for k, v := range h {
		c[k] = v
	}
	return c
}

// Rect is a rectangle in view coordinates
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsEmpty returns true when the rectangle covers no pixels
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rectangle containing both r and o
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	x1, y1 := r.X, r.Y
	if o.X < x1 {
		x1 = o.X
	}
	if o.Y < y1 {
		y1 = o.Y
	}
	x2, y2 := r.X+r.Width, r.Y+r.Height
	if o.X+o.Width > x2 {
		x2 = o.X + o.Width
	}
	if o.Y+o.Height > y2 {
		y2 = o.Y + o.Height
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// RenderBuffer is a non-owning view of the most recent rendered frame.
// Pixels are tightly packed 32bpp BGRA, row by row. The buffer is only
// valid until the owning view renders again or is destroyed.
type RenderBuffer struct {
	Buffer  []byte // Width*Height*4 bytes of BGRA pixel data
	Width   int
	Height  int
	RowSpan int // bytes per row, Width*4
}

// CopyBuffer returns a copy of the pixel data that survives the next render
func (r *RenderBuffer) CopyBuffer() []byte {
	c := make([]byte, len(r.Buffer))
	copy(c, r.Buffer)
	return c
}

// KeyEventType distinguishes keyboard event kinds
type KeyEventType int8

const (
	KeyDown KeyEventType = iota
	KeyUp
	KeyChar
)

// Keyboard modifier bit flags, OR them together in KeyEvent.Modifiers
const (
	ModAlt   = 1
	ModCtrl  = 2
	ModMeta  = 4
	ModShift = 8
)

// KeyEvent is a single keyboard event to inject into a view
type KeyEvent struct {
	Type           KeyEventType
	Modifiers      int
	VirtualKeyCode int
	NativeKeyCode  int
	Text           string // generated text, used by KeyChar events
	UnmodifiedText string // text ignoring modifiers
	IsSystemKey    bool
}

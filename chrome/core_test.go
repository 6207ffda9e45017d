package chrome

import (
	"testing"

	"gitlab.com/offview/webview"
)

var viewSizeInputs = []struct {
	name           string
	cfg            webview.Config
	width, height  int
	expectedWidth  int
	expectedHeight int
}{
	{"explicit wins", webview.Config{DefaultWidth: 640, DefaultHeight: 480}, 800, 600, 800, 600},
	{"configured defaults", webview.Config{DefaultWidth: 640, DefaultHeight: 480}, 0, 0, 640, 480},
	{"built in fallback", webview.Config{}, 0, 0, 1024, 768},
	{"mixed", webview.Config{DefaultHeight: 480}, 800, 0, 800, 480},
	{"negative treated as unset", webview.Config{}, -1, -1, 1024, 768},
}

func TestViewSize(t *testing.T) {
	for _, in := range viewSizeInputs {
		cfg := in.cfg
		c := &WebCore{cfg: &cfg}
		width, height := c.viewSize(in.width, in.height)
		if width != in.expectedWidth || height != in.expectedHeight {
			t.Fatalf("%s: expected %dx%d got %dx%d\n", in.name, in.expectedWidth, in.expectedHeight, width, height)
		}
	}
}

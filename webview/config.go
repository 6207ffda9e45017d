package webview

import "time"

// Credentials for HTTP basic authentication during navigation
type Credentials struct {
	Username string
	Password string
}

// Config for an engine core
type Config struct {
	ChromePath    string        // engine binary path, auto discovered when empty
	ChromeFlags   []string      // additional engine startup flags
	BaseDirectory string        // directory LoadFile paths and local:// rules resolve against
	DataPath      string        // profile store location, persistence disabled when empty
	Profile       string        // profile name keying persisted state, "default" when empty
	NumViews      int           // maximum concurrent views
	LeaseTimeout  time.Duration // how long to wait for an engine instance on CreateView
	DefaultWidth  int           // view width when CreateView is given none, 1024 when zero
	DefaultHeight int           // view height when CreateView is given none, 768 when zero
	Transparent   bool          // new views render with a transparent background
}

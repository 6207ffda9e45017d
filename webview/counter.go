package webview

import "sync/atomic"

var viewCounter int64

// GetViewID a process wide unique view ID
func GetViewID() int64 {
	return atomic.AddInt64(&viewCounter, 1)
}

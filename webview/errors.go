package webview

import "github.com/pkg/errors"

// revive:exported
var (
	ErrViewDestroyed  = errors.New("view has been destroyed")
	ErrEngineCrashed  = errors.New("engine process crashed")
	ErrObjectNotFound = errors.New("no script object with that name")
	ErrFrameNotFound  = errors.New("no frame with that name")
)

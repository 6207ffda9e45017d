package chrome

import (
	"fmt"

	"github.com/pkg/errors"
)

// revive:exported
var (
	ErrEngineClosing = errors.New("unable to create view, engine closing down")
	ErrAcquireFailed = errors.New("engine instance acquisition failed")
	ErrNavigating    = errors.New("error in navigation")
	ErrBridgePayload = errors.New("malformed script callback payload")
)

// ScriptEvaluationErr when the engine raised an exception evaluating script
type ScriptEvaluationErr struct {
	Message string
	Line    int
	Column  int
}

func (e *ScriptEvaluationErr) Error() string {
	return fmt.Sprintf("script evaluation failed at %d:%d: %s", e.Line, e.Column, e.Message)
}

// InvalidHistoryOffsetErr when a history offset lands outside the entry list
type InvalidHistoryOffsetErr struct {
	Offset  int
	Entries int
}

func (e *InvalidHistoryOffsetErr) Error() string {
	return fmt.Sprintf("history offset %d out of range for %d entries", e.Offset, e.Entries)
}

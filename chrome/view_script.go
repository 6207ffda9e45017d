package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wirepair/gcd/gcdapi"
	"gitlab.com/offview/webview"
)

// evaluate runs an expression in the given execution context, 0 targets
// the default context of the main frame
func (v *View) evaluate(ctx context.Context, expression string, contextID int, returnByValue bool) (*gcdapi.RuntimeRemoteObject, error) {
	params := &gcdapi.RuntimeEvaluateParams{
		Expression:    expression,
		ReturnByValue: returnByValue,
		ContextId:     contextID,
	}
	result, details, err := v.t.Runtime.EvaluateWithParams(params)
	if err != nil {
		return nil, errors.Wrap(err, "evaluating script")
	}
	if details != nil {
		return nil, scriptError(details)
	}
	return result, nil
}

func scriptError(details *gcdapi.RuntimeExceptionDetails) error {
	message := details.Text
	if details.Exception != nil && details.Exception.Description != "" {
		message = details.Exception.Description
	}
	return &ScriptEvaluationErr{Message: message, Line: details.LineNumber, Column: details.ColumnNumber}
}

// ExecuteJavascript runs script in the named frame, fire and forget
func (v *View) ExecuteJavascript(ctx context.Context, script, frame string) error {
	if err := v.operable(); err != nil {
		return err
	}
	contextID, err := v.contextIDByFrame(frame)
	if err != nil {
		return err
	}
	_, err = v.evaluate(ctx, script, contextID, false)
	return err
}

// ExecuteJavascriptWithResult runs script and returns a future that
// resolves with the script's value once the engine reports back
func (v *View) ExecuteJavascriptWithResult(ctx context.Context, script, frame string) *webview.FutureJSValue {
	future := webview.NewFutureJSValue()
	if err := v.operable(); err != nil {
		future.Fail(err)
		return future
	}
	contextID, err := v.contextIDByFrame(frame)
	if err != nil {
		future.Fail(err)
		return future
	}

	v.trackFuture(future)
	go func() {
		defer v.dropFuture(future)
		result, err := v.evaluate(ctx, script, contextID, true)
		if err != nil {
			future.Fail(err)
			return
		}
		if result == nil {
			future.Complete(webview.NullValue())
			return
		}
		future.Complete(webview.ValueOf(result.Value))
	}()
	return future
}

// CallJavascriptFunction invokes object.function(args...) in the named
// frame
func (v *View) CallJavascriptFunction(ctx context.Context, object, function string, args webview.JSArguments, frame string) error {
	if err := v.operable(); err != nil {
		return err
	}
	contextID, err := v.contextIDByFrame(frame)
	if err != nil {
		return err
	}

	argsJSON := []byte("[]")
	if args != nil {
		argsJSON, err = json.Marshal(args)
		if err != nil {
			return errors.Wrap(err, "encoding arguments")
		}
	}
	expr := fmt.Sprintf(
		"(function() { var target = window[%s]; var fn = %s; if (!target || typeof target[fn] !== 'function') { throw new Error(fn + ' is not callable'); } return target[fn].apply(target, %s); })();",
		jsonString(object), jsonString(function), string(argsJSON))
	_, err = v.evaluate(ctx, expr, contextID, false)
	return err
}

// CreateObject installs a named object on window, recreated on every
// navigation for the life of the view. Creating an existing object
// resets it.
func (v *View) CreateObject(ctx context.Context, name string) error {
	if err := v.operable(); err != nil {
		return err
	}
	if name == "" {
		return errors.New("missing object name")
	}
	if err := v.book.createObject(name); err != nil {
		return errors.Wrap(err, "recording object")
	}
	return v.syncBridge(ctx)
}

// DestroyObject removes a created object from window and from future
// documents
func (v *View) DestroyObject(ctx context.Context, name string) error {
	if err := v.operable(); err != nil {
		return err
	}
	existed, err := v.book.destroyObject(name)
	if err != nil {
		return errors.Wrap(err, "removing object")
	}
	if !existed {
		return webview.ErrObjectNotFound
	}
	if _, err := v.evaluate(ctx, fmt.Sprintf("delete window[%s];", jsonString(name)), 0, false); err != nil {
		return err
	}
	return v.syncBridge(ctx)
}

// SetObjectProperty sets a property on a created object
func (v *View) SetObjectProperty(ctx context.Context, object, property string, value webview.JSValue) error {
	if err := v.operable(); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "encoding property")
	}
	if err := v.book.setProperty(object, property, raw); err != nil {
		return err
	}
	return v.syncBridge(ctx)
}

// SetObjectCallback binds a callback name on a created object, page
// side calls surface through Listener.OnScriptCallback
func (v *View) SetObjectCallback(ctx context.Context, object, callback string) error {
	if err := v.operable(); err != nil {
		return err
	}
	if callback == "" {
		return errors.New("missing callback name")
	}
	if err := v.book.setCallback(object, callback); err != nil {
		return err
	}
	return v.syncBridge(ctx)
}

// syncBridge reinstalls the new document script and replays the object
// book into the live page
func (v *View) syncBridge(ctx context.Context) error {
	v.scriptMu.Lock()
	defer v.scriptMu.Unlock()

	source := bridgeBootstrap() + "\n" + v.book.script()
	if v.scriptID != "" {
		if _, err := v.t.Page.RemoveScriptToEvaluateOnNewDocument(v.scriptID); err != nil {
			log.Debug().Err(err).Int64("view_id", v.id).Msg("unable to remove old bridge script")
		}
	}
	identifier, err := v.t.Page.AddScriptToEvaluateOnNewDocumentWithParams(&gcdapi.PageAddScriptToEvaluateOnNewDocumentParams{Source: source})
	if err != nil {
		return errors.Wrap(err, "installing bridge script")
	}
	v.scriptID = identifier

	if _, err := v.evaluate(ctx, v.book.script(), 0, false); err != nil {
		return err
	}
	return nil
}

func (v *View) trackFuture(future *webview.FutureJSValue) {
	v.futMu.Lock()
	v.futures[future] = struct{}{}
	v.futMu.Unlock()
}

func (v *View) dropFuture(future *webview.FutureJSValue) {
	v.futMu.Lock()
	delete(v.futures, future)
	v.futMu.Unlock()
}

// failFutures resolves every outstanding future with err
func (v *View) failFutures(err error) {
	v.futMu.Lock()
	for future := range v.futures {
		future.Fail(err)
	}
	v.futures = make(map[*webview.FutureJSValue]struct{})
	v.futMu.Unlock()
}

// dispatchBridgePayload routes a binding payload to the listener or to
// the internal handlers
func (v *View) dispatchBridgePayload(payload string) {
	object, callback, args, err := parseBridgePayload(payload)
	if err != nil {
		log.Warn().Err(err).Int64("view_id", v.id).Msg("dropping bridge payload")
		return
	}
	if object == internalObjectName {
		v.handleInternalCallback(callback, args)
		return
	}

	listener := v.Listener()
	if listener == nil {
		return
	}
	listener.OnScriptCallback(v, &webview.ScriptCallbackEvent{
		Object:   object,
		Callback: callback,
		Args:     args,
		Observed: time.Now(),
	})
}

func (v *View) handleInternalCallback(callback string, args webview.JSArguments) {
	switch callback {
	case internalTitleCallback:
		title := ""
		if len(args) > 0 {
			title = args[0].ToString()
		}
		v.addrMu.Lock()
		changed := v.title != title
		v.title = title
		v.addrMu.Unlock()
		if changed {
			if listener := v.Listener(); listener != nil {
				listener.OnTitleChange(v, title)
			}
		}
	}
}

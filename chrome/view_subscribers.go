package chrome

import (
	"encoding/json"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wirepair/gcd"
	"github.com/wirepair/gcd/gcdapi"
	"gitlab.com/offview/webview"
)

func (v *View) subscribeEvents() {
	v.subscribeTargetCrashed()
	v.subscribeTargetDetached()
	v.subscribeFrameAttached()
	v.subscribeFrameNavigated()
	v.subscribeFrameDetached()
	v.subscribeFrameStartedLoading()
	v.subscribeFrameStoppedLoading()
	v.subscribeLoadEvent()
	v.subscribeDocumentReady()
	v.subscribeExecutionContextCreated()
	v.subscribeExecutionContextDestroyed()
	v.subscribeExecutionContextsCleared()
	v.subscribeConsoleMessages()
	v.subscribeBindingCalled()
	v.subscribeScreencastFrame()
	v.subscribeRequestPaused()
	v.subscribeAuthRequired()
}

func (v *View) subscribeTargetCrashed() {
	v.t.Subscribe("Inspector.targetCrashed", func(target *gcd.ChromeTarget, payload []byte) {
		select {
		case v.crashedCh <- "crashed":
		case <-v.exitCh:
		}
	})
}

func (v *View) subscribeTargetDetached() {
	v.t.Subscribe("Inspector.detached", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.InspectorDetachedEvent{}
		reason := "detached"
		if err := json.Unmarshal(payload, header); err == nil {
			reason = header.Params.Reason
		}
		select {
		case v.crashedCh <- reason:
		case <-v.exitCh:
		}
	})
}

func (v *View) subscribeFrameAttached() {
	v.t.Subscribe("Page.frameAttached", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.PageFrameAttachedEvent{}
		if err := json.Unmarshal(payload, header); err != nil {
			return
		}
		v.frameMu.Lock()
		v.frames[header.Params.FrameId] = &frameEntry{parentID: header.Params.ParentFrameId}
		v.frameMu.Unlock()
	})
}

func (v *View) subscribeFrameNavigated() {
	v.t.Subscribe("Page.frameNavigated", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.PageFrameNavigatedEvent{}
		if err := json.Unmarshal(payload, header); err != nil {
			return
		}
		frame := header.Params.Frame
		if frame == nil {
			return
		}

		v.frameMu.Lock()
		v.frames[frame.Id] = &frameEntry{name: frame.Name, url: frame.Url, parentID: frame.ParentId}
		if frame.ParentId == "" {
			v.mainFrameID = frame.Id
		}
		mainFrame := frame.Id == v.mainFrameID
		v.frameMu.Unlock()

		if mainFrame {
			v.addrMu.Lock()
			v.url = frame.Url
			v.addrMu.Unlock()
		}

		listener := v.Listener()
		if listener == nil {
			return
		}
		event := &webview.NavigationEvent{
			URL:         frame.Url,
			Frame:       frame.Name,
			IsMainFrame: mainFrame,
			Observed:    time.Now(),
		}
		listener.OnBeginNavigation(v, event)
		if mainFrame {
			listener.OnAddressChange(v, frame.Url)
		}
	})
}

func (v *View) subscribeFrameDetached() {
	v.t.Subscribe("Page.frameDetached", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.PageFrameDetachedEvent{}
		if err := json.Unmarshal(payload, header); err != nil {
			return
		}
		v.frameMu.Lock()
		delete(v.frames, header.Params.FrameId)
		delete(v.contexts, header.Params.FrameId)
		v.frameMu.Unlock()
	})
}

func (v *View) subscribeFrameStartedLoading() {
	v.t.Subscribe("Page.frameStartedLoading", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.PageFrameStartedLoadingEvent{}
		if err := json.Unmarshal(payload, header); err != nil {
			return
		}
		if v.isMainFrame(header.Params.FrameId) {
			v.loading.Store(true)
		}
	})
}

func (v *View) subscribeFrameStoppedLoading() {
	v.t.Subscribe("Page.frameStoppedLoading", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.PageFrameStoppedLoadingEvent{}
		if err := json.Unmarshal(payload, header); err != nil {
			return
		}
		frameID := header.Params.FrameId
		mainFrame := v.isMainFrame(frameID)
		if mainFrame {
			v.loading.Store(false)
		}

		listener := v.Listener()
		if listener == nil {
			return
		}
		v.frameMu.RLock()
		entry := v.frames[frameID]
		v.frameMu.RUnlock()
		if entry == nil || (!mainFrame && entry.name == "") {
			return
		}
		listener.OnFinishLoading(v, &webview.NavigationEvent{
			URL:         entry.url,
			Frame:       entry.name,
			IsMainFrame: mainFrame,
			Observed:    time.Now(),
		})
	})
}

func (v *View) subscribeLoadEvent() {
	v.t.Subscribe("Page.loadEventFired", func(target *gcd.ChromeTarget, payload []byte) {
		v.loading.Store(false)
		go v.pageLoaded(v.URL())
	})
}

// pageLoaded applies the remembered zoom for the host and records the
// visit
func (v *View) pageLoaded(pageURL string) {
	store := v.core.Store()
	if store == nil || pageURL == "" {
		return
	}

	if err := store.AddHistory(pageURL, v.Title()); err != nil {
		log.Warn().Err(err).Int64("view_id", v.id).Msg("unable to record visit")
	}

	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Hostname() == "" {
		return
	}
	percent, err := store.Zoom(parsed.Hostname())
	if err != nil || percent == int(atomic.LoadInt32(&v.zoom)) {
		return
	}
	if err := v.applyZoom(percent); err != nil {
		log.Warn().Err(err).Int64("view_id", v.id).Str("host", parsed.Hostname()).Msg("unable to restore zoom")
	}
}

func (v *View) subscribeDocumentReady() {
	v.t.Subscribe("Page.domContentEventFired", func(target *gcd.ChromeTarget, payload []byte) {
		if listener := v.Listener(); listener != nil {
			listener.OnDocumentReady(v, v.URL())
		}
	})
}

func (v *View) subscribeExecutionContextCreated() {
	v.t.Subscribe("Runtime.executionContextCreated", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.RuntimeExecutionContextCreatedEvent{}
		if err := json.Unmarshal(payload, header); err != nil {
			return
		}
		context := header.Params.Context
		if context == nil || context.AuxData == nil {
			return
		}
		frameID, _ := context.AuxData["frameId"].(string)
		isDefault, _ := context.AuxData["isDefault"].(bool)
		if frameID == "" || !isDefault {
			return
		}
		v.frameMu.Lock()
		v.contexts[frameID] = context.Id
		v.frameMu.Unlock()
	})
}

func (v *View) subscribeExecutionContextDestroyed() {
	v.t.Subscribe("Runtime.executionContextDestroyed", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.RuntimeExecutionContextDestroyedEvent{}
		if err := json.Unmarshal(payload, header); err != nil {
			return
		}
		v.frameMu.Lock()
		for frameID, contextID := range v.contexts {
			if contextID == header.Params.ExecutionContextId {
				delete(v.contexts, frameID)
			}
		}
		v.frameMu.Unlock()
	})
}

func (v *View) subscribeExecutionContextsCleared() {
	v.t.Subscribe("Runtime.executionContextsCleared", func(target *gcd.ChromeTarget, payload []byte) {
		v.frameMu.Lock()
		v.contexts = make(map[string]int)
		v.frameMu.Unlock()
	})
}

func (v *View) subscribeConsoleMessages() {
	v.t.Subscribe("Console.messageAdded", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.ConsoleMessageAddedEvent{}
		if err := json.Unmarshal(payload, header); err != nil {
			return
		}
		message := header.Params.Message
		if message == nil {
			return
		}
		if listener := v.Listener(); listener != nil {
			listener.OnConsoleMessage(v, &webview.ConsoleEvent{
				Source:   message.Source,
				Level:    message.Level,
				Text:     message.Text,
				URL:      message.Url,
				Line:     message.Line,
				Column:   message.Column,
				Observed: time.Now(),
			})
		}
	})
}

func (v *View) subscribeBindingCalled() {
	v.t.Subscribe("Runtime.bindingCalled", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.RuntimeBindingCalledEvent{}
		if err := json.Unmarshal(payload, header); err != nil {
			return
		}
		if header.Params.Name != bridgeBindingName {
			return
		}
		v.dispatchBridgePayload(header.Params.Payload)
	})
}

func (v *View) subscribeScreencastFrame() {
	v.t.Subscribe("Page.screencastFrame", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.PageScreencastFrameEvent{}
		if err := json.Unmarshal(payload, header); err != nil {
			return
		}
		if _, err := v.t.Page.ScreencastFrameAck(header.Params.SessionId); err != nil {
			log.Debug().Err(err).Int64("view_id", v.id).Msg("unable to ack frame")
		}
		v.handleScreencastFrame(header.Params.Data, header.Params.Metadata)
	})
}

// ensureGate turns on request interception once some gate feature is in
// use, a view with no filters, rewrite rules, interceptor or
// credentials never pays for it
func (v *View) ensureGate() {
	if v.isDestroyed() || v.isCrashed() {
		return
	}
	if !atomic.CompareAndSwapInt32(&v.gateFlag, 0, 1) {
		return
	}
	if _, err := v.t.Fetch.EnableWithParams(&gcdapi.FetchEnableParams{HandleAuthRequests: true}); err != nil {
		atomic.StoreInt32(&v.gateFlag, 0)
		log.Warn().Err(err).Int64("view_id", v.id).Msg("unable to enable request interception")
	}
}

func (v *View) subscribeRequestPaused() {
	v.t.Subscribe("Fetch.requestPaused", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.FetchRequestPausedEvent{}
		if err := json.Unmarshal(payload, header); err != nil {
			return
		}
		if header.Params.Request == nil {
			return
		}
		// interceptors run user code, keep them off the socket reader
		go v.resolvePausedRequest(header)
	})
}

// resolvePausedRequest runs the request through the gate pipeline and
// answers the engine
func (v *View) resolvePausedRequest(event *gcdapi.FetchRequestPausedEvent) {
	plan := planPausedRequest(v.gate, v.ResourceInterceptor(), v, event)
	if plan.deny {
		log.Debug().Int64("view_id", v.id).Str("url", event.Params.Request.Url).Str("reason", plan.denyReason).Msg("request denied")
		v.failRequest(event.Params.RequestId, plan.denyReason)
		return
	}
	if _, err := v.t.Fetch.ContinueRequestWithParams(plan.params); err != nil {
		log.Warn().Err(err).Int64("view_id", v.id).Str("url", event.Params.Request.Url).Msg("unable to continue request")
	}
}

func (v *View) failRequest(requestID, reason string) {
	if _, err := v.t.Fetch.FailRequest(requestID, reason); err != nil {
		log.Warn().Err(err).Int64("view_id", v.id).Msg("unable to fail request")
	}
}

func (v *View) subscribeAuthRequired() {
	v.t.Subscribe("Fetch.authRequired", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.FetchAuthRequiredEvent{}
		if err := json.Unmarshal(payload, header); err != nil {
			return
		}
		go v.resolveAuthChallenge(header.Params.RequestId)
	})
}

// resolveAuthChallenge answers with the navigation credentials or gives
// up, the engine would otherwise sit on the challenge forever
func (v *View) resolveAuthChallenge(requestID string) {
	response := &gcdapi.FetchAuthChallengeResponse{Response: "CancelAuth"}
	if creds := v.credentials(); creds != nil {
		response.Response = "ProvideCredentials"
		response.Username = creds.Username
		response.Password = creds.Password
	}
	if _, err := v.t.Fetch.ContinueWithAuth(requestID, response); err != nil {
		log.Warn().Err(err).Int64("view_id", v.id).Msg("unable to answer auth challenge")
	}
}

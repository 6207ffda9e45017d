package mock

import "gitlab.com/offview/webview"

// Interceptor is a configurable webview.ResourceInterceptor double
type Interceptor struct {
	OnRequestFn     func(view webview.View, request *webview.Request) bool
	OnRequestCalled bool

	// Requests seen by the default OnRequestFn
	Requests []*webview.Request
}

// OnRequest called for every request about to leave the view
func (i *Interceptor) OnRequest(view webview.View, request *webview.Request) bool {
	i.OnRequestCalled = true
	return i.OnRequestFn(view, request)
}

// MakeMockInterceptor returns an interceptor double that records every
// request and lets it through
func MakeMockInterceptor() *Interceptor {
	i := &Interceptor{Requests: make([]*webview.Request, 0)}
	i.OnRequestFn = func(view webview.View, request *webview.Request) bool {
		i.Requests = append(i.Requests, request)
		return true
	}
	return i
}

package webview

// Request describes an outgoing resource request passing through a
// view's request gate
type Request struct {
	ID           string            `json:"id"`     // engine assigned request id
	URL          string            `json:"url"`    // requested URL
	Method       string            `json:"method"` // HTTP method
	Headers      map[string]string `json:"headers"`
	PostData     []byte            `json:"post_data,omitempty"`
	ResourceType string            `json:"resource_type"` // Document, Image, XHR and friends
	IsNavigation bool              `json:"is_navigation"` // true when this request navigates a frame
}

// ResourceInterceptor is consulted for every resource request a view
// makes, after URL filtering and before header rewriting. OnRequest may
// mutate the request in place to redirect or reshape it, returning
// false denies the request outright. Called from engine owned
// goroutines, one request at a time per view.
type ResourceInterceptor interface {
	OnRequest(view View, request *Request) bool
}

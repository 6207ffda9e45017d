package chrome

import (
	"encoding/base64"
	"testing"

	"github.com/wirepair/gcd/gcdapi"
	"gitlab.com/offview/mock"
	"gitlab.com/offview/webview"
)

func pausedEvent(url, method string) *gcdapi.FetchRequestPausedEvent {
	event := &gcdapi.FetchRequestPausedEvent{}
	event.Params.RequestId = "interception-1"
	event.Params.ResourceType = "Document"
	event.Params.Request = &gcdapi.NetworkRequest{
		Url:    url,
		Method: method,
		Headers: map[string]interface{}{
			"User-Agent": "engine",
			"Accept":     "text/html",
		},
	}
	return event
}

func TestPlanPassthrough(t *testing.T) {
	gate := NewRequestGate("")
	plan := planPausedRequest(gate, nil, mock.MakeMockView(), pausedEvent("http://example.com/", "GET"))

	if plan.deny {
		t.Fatalf("expected request to pass, denied with %s\n", plan.denyReason)
	}
	if plan.params.Url != "" || plan.params.Method != "" || plan.params.PostData != "" {
		t.Fatalf("passthrough must not modify the request: %+v\n", plan.params)
	}
	if plan.params.Headers != nil {
		t.Fatalf("passthrough must not attach headers\n")
	}
}

func TestPlanFiltered(t *testing.T) {
	gate := NewRequestGate("")
	gate.SetFilteringMode(webview.FilterBlacklist)
	gate.AddFilter("*://ads.example.com/*")

	interceptor := mock.MakeMockInterceptor()
	plan := planPausedRequest(gate, interceptor, mock.MakeMockView(), pausedEvent("http://ads.example.com/tag.js", "GET"))

	if !plan.deny || plan.denyReason != "BlockedByClient" {
		t.Fatalf("expected filter denial, got %+v\n", plan)
	}
	if interceptor.OnRequestCalled {
		t.Fatalf("interceptor must not see filtered requests\n")
	}
}

func TestPlanInterceptorDenies(t *testing.T) {
	interceptor := mock.MakeMockInterceptor()
	interceptor.OnRequestFn = func(view webview.View, request *webview.Request) bool {
		return false
	}

	plan := planPausedRequest(NewRequestGate(""), interceptor, mock.MakeMockView(), pausedEvent("http://example.com/", "GET"))
	if !plan.deny || plan.denyReason != "Aborted" {
		t.Fatalf("expected interceptor denial, got %+v\n", plan)
	}
}

func TestPlanInterceptorRedirects(t *testing.T) {
	interceptor := mock.MakeMockInterceptor()
	interceptor.OnRequestFn = func(view webview.View, request *webview.Request) bool {
		request.URL = "http://mirror.example.com/"
		request.PostData = []byte(`{"q":1}`)
		request.Method = "POST"
		return true
	}

	plan := planPausedRequest(NewRequestGate(""), interceptor, mock.MakeMockView(), pausedEvent("http://example.com/", "GET"))
	if plan.deny {
		t.Fatalf("expected request to pass\n")
	}
	if plan.params.Url != "http://mirror.example.com/" {
		t.Fatalf("expected redirect url, got %q\n", plan.params.Url)
	}
	if plan.params.Method != "POST" {
		t.Fatalf("expected method change, got %q\n", plan.params.Method)
	}
	decoded, err := base64.StdEncoding.DecodeString(plan.params.PostData)
	if err != nil || string(decoded) != `{"q":1}` {
		t.Fatalf("expected encoded post data, got %q\n", plan.params.PostData)
	}
	if plan.params.Headers == nil {
		t.Fatalf("intercepted requests carry their full header set\n")
	}
}

func TestPlanRewriteHeaders(t *testing.T) {
	gate := NewRequestGate("")
	gate.SetDefinition("anon", webview.HeaderDefinition{"User-Agent": "offview/1.0", "X-Trace": "off"})
	gate.AddRewriteRule("http://example.com/*", "anon")

	plan := planPausedRequest(gate, nil, mock.MakeMockView(), pausedEvent("http://example.com/page", "GET"))
	if plan.deny {
		t.Fatalf("expected request to pass\n")
	}
	if plan.params.Headers == nil {
		t.Fatalf("expected rewritten headers to be attached\n")
	}

	headers := map[string]string{}
	for _, entry := range plan.params.Headers {
		headers[entry.Name] = entry.Value
	}
	if headers["user-agent"] != "offview/1.0" {
		t.Fatalf("definition value not applied: %+v\n", headers)
	}
	if headers["x-trace"] != "off" {
		t.Fatalf("definition header not added: %+v\n", headers)
	}
	if headers["accept"] != "text/html" {
		t.Fatalf("untouched headers must survive the rewrite: %+v\n", headers)
	}

	// url with no matching rule keeps its headers off the wire
	plan = planPausedRequest(gate, nil, mock.MakeMockView(), pausedEvent("http://other.example.com/", "GET"))
	if plan.params.Headers != nil {
		t.Fatalf("unmatched request must not attach headers\n")
	}
}

func TestPlanHeaderEntriesSorted(t *testing.T) {
	gate := NewRequestGate("")
	gate.SetDefinition("d", webview.HeaderDefinition{"Zulu": "1", "alpha": "2"})
	gate.AddRewriteRule("*", "d")

	plan := planPausedRequest(gate, nil, mock.MakeMockView(), pausedEvent("http://example.com/", "GET"))
	names := make([]string, len(plan.params.Headers))
	for i, entry := range plan.params.Headers {
		names[i] = entry.Name
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("header entries out of order: %v\n", names)
		}
	}
}

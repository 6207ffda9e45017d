package chrome

import (
	"bytes"
	"encoding/base64"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wirepair/gcd/gcdapi"
	"gitlab.com/offview/webview"
)

type rewriteRule struct {
	rule       string
	definition string
}

// RequestGate is a view's request policy book: the URL filter mode and
// rules plus the named header definitions and rewrite rules. Every
// paused request is checked against the gate before it reaches the
// network.
type RequestGate struct {
	mu          sync.RWMutex
	mode        webview.URLFilteringMode
	filters     []string
	definitions map[string]webview.HeaderDefinition
	rules       []*rewriteRule
	baseDir     string
}

// NewRequestGate with baseDir for resolving local:// rules
func NewRequestGate(baseDir string) *RequestGate {
	return &RequestGate{
		filters:     make([]string, 0),
		definitions: make(map[string]webview.HeaderDefinition),
		rules:       make([]*rewriteRule, 0),
		baseDir:     baseDir,
	}
}

// SetFilteringMode switches how filter rules are applied
func (g *RequestGate) SetFilteringMode(mode webview.URLFilteringMode) {
	g.mu.Lock()
	g.mode = mode
	g.mu.Unlock()
}

// AddFilter appends a wildcard filter rule
func (g *RequestGate) AddFilter(rule string) {
	g.mu.Lock()
	g.filters = append(g.filters, rule)
	g.mu.Unlock()
}

// ClearAllFilters empties the filter rule list
func (g *RequestGate) ClearAllFilters() {
	g.mu.Lock()
	g.filters = make([]string, 0)
	g.mu.Unlock()
}

// AllowURL checks url against the filter mode and rules
func (g *RequestGate) AllowURL(url string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	switch g.mode {
	case webview.FilterBlacklist:
		return !g.matchesAny(url)
	case webview.FilterWhitelist:
		return g.matchesAny(url)
	}
	return true
}

func (g *RequestGate) matchesAny(url string) bool {
	for _, rule := range g.filters {
		if g.matchRule(rule, url) {
			return true
		}
	}
	return false
}

// SetDefinition creates or updates a named header definition
func (g *RequestGate) SetDefinition(name string, definition webview.HeaderDefinition) {
	g.mu.Lock()
	g.definitions[name] = definition.Copy()
	g.mu.Unlock()
}

// AddRewriteRule associates a URL wildcard rule with a definition name
func (g *RequestGate) AddRewriteRule(rule, definitionName string) {
	g.mu.Lock()
	g.rules = append(g.rules, &rewriteRule{rule: rule, definition: definitionName})
	g.mu.Unlock()
}

// RemoveRewriteRule removes every rule with the exact rule string
func (g *RequestGate) RemoveRewriteRule(rule string) {
	g.mu.Lock()
	kept := g.rules[:0]
	for _, r := range g.rules {
		if r.rule != rule {
			kept = append(kept, r)
		}
	}
	g.rules = kept
	g.mu.Unlock()
}

// RemoveRewriteRulesByDefinitionName removes all rules bound to name,
// an empty name removes every rule
func (g *RequestGate) RemoveRewriteRulesByDefinitionName(name string) {
	g.mu.Lock()
	if name == "" {
		g.rules = make([]*rewriteRule, 0)
	} else {
		kept := g.rules[:0]
		for _, r := range g.rules {
			if r.definition != name {
				kept = append(kept, r)
			}
		}
		g.rules = kept
	}
	g.mu.Unlock()
}

// RewriteFor returns the header definition of the first rewrite rule
// matching url. Rules naming an undefined definition are inert.
func (g *RequestGate) RewriteFor(url string) (webview.HeaderDefinition, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, r := range g.rules {
		if !g.matchRule(r.rule, url) {
			continue
		}
		if def, ok := g.definitions[r.definition]; ok {
			return def.Copy(), true
		}
	}
	return nil, false
}

// matchRule matches a single wildcard rule against url, translating
// local:// rules into file URLs under the base directory
func (g *RequestGate) matchRule(rule, url string) bool {
	if strings.HasPrefix(rule, webview.LocalScheme) {
		if g.baseDir == "" {
			return false
		}
		base := filepath.ToSlash(g.baseDir)
		if !strings.HasPrefix(base, "/") {
			base = "/" + base
		}
		rule = "file://" + base + "/" + strings.TrimPrefix(rule, webview.LocalScheme)
	}
	return WildcardMatch(strings.ToLower(rule), strings.ToLower(url))
}

// WildcardMatch reports whether s matches pattern, * matches any run
// of characters and ? exactly one
func WildcardMatch(pattern, s string) bool {
	p, n := 0, 0
	star, mark := -1, 0
	for n < len(s) {
		switch {
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == s[n]):
			p++
			n++
		case p < len(pattern) && pattern[p] == '*':
			star = p
			mark = n
			p++
		case star != -1:
			p = star + 1
			mark++
			n = mark
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// requestPlan is the outcome of running a paused request through the
// gate pipeline
type requestPlan struct {
	deny       bool
	denyReason string
	params     *gcdapi.FetchContinueRequestParams
}

// planPausedRequest decides what happens to a paused request, URL
// filters first, then the interceptor, then header rewriting. Header
// entries are only attached when something could have touched them.
func planPausedRequest(gate *RequestGate, interceptor webview.ResourceInterceptor, view webview.View, event *gcdapi.FetchRequestPausedEvent) *requestPlan {
	requestID := event.Params.RequestId
	originalURL := event.Params.Request.Url

	if !gate.AllowURL(originalURL) {
		return &requestPlan{deny: true, denyReason: "BlockedByClient"}
	}

	request := pausedToRequest(event)
	if interceptor != nil {
		if !interceptor.OnRequest(view, request) {
			return &requestPlan{deny: true, denyReason: "Aborted"}
		}
	}

	definition, matched := gate.RewriteFor(request.URL)
	for name, value := range definition {
		request.Headers[strings.ToLower(name)] = value
	}

	params := &gcdapi.FetchContinueRequestParams{RequestId: requestID}
	if request.URL != originalURL {
		params.Url = request.URL
	}
	if request.Method != "" && request.Method != event.Params.Request.Method {
		params.Method = request.Method
	}
	if len(request.PostData) > 0 && !bytes.Equal(request.PostData, []byte(event.Params.Request.PostData)) {
		params.PostData = base64.StdEncoding.EncodeToString(request.PostData)
	}
	if matched || interceptor != nil {
		params.Headers = headerEntries(request.Headers)
	}
	return &requestPlan{params: params}
}

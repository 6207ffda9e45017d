package chrome_test

import (
	"testing"

	"gitlab.com/offview/chrome"
	"gitlab.com/offview/webview"
)

func TestGateFilteringModes(t *testing.T) {
	g := chrome.NewRequestGate("")
	g.AddFilter("*://ads.example.com/*")
	g.AddFilter("*.swf")

	var inputs = []struct {
		mode     webview.URLFilteringMode
		in       string
		expected bool
	}{
		{
			webview.FilterNone,
			"http://ads.example.com/banner.png",
			true,
		},
		{
			webview.FilterBlacklist,
			"http://ads.example.com/banner.png",
			false,
		},
		{
			webview.FilterBlacklist,
			"http://example.com/index.html",
			true,
		},
		{
			webview.FilterBlacklist,
			"http://example.com/movie.SWF",
			false,
		},
		{
			webview.FilterWhitelist,
			"http://ads.example.com/banner.png",
			true,
		},
		{
			webview.FilterWhitelist,
			"http://example.com/index.html",
			false,
		},
	}
	for _, in := range inputs {
		g.SetFilteringMode(in.mode)
		if got := g.AllowURL(in.in); got != in.expected {
			t.Fatalf("mode %s: AllowURL(%s) was %v expected %v\n", in.mode, in.in, got, in.expected)
		}
	}
}

func TestGateEmptyWhitelistDeniesAll(t *testing.T) {
	g := chrome.NewRequestGate("")
	g.SetFilteringMode(webview.FilterWhitelist)
	if g.AllowURL("http://example.com/") {
		t.Fatalf("empty whitelist should deny everything\n")
	}
	g.SetFilteringMode(webview.FilterBlacklist)
	if !g.AllowURL("http://example.com/") {
		t.Fatalf("empty blacklist should allow everything\n")
	}
}

func TestGateClearFilters(t *testing.T) {
	g := chrome.NewRequestGate("")
	g.SetFilteringMode(webview.FilterBlacklist)
	g.AddFilter("*")
	if g.AllowURL("http://example.com/") {
		t.Fatalf("star rule should match everything\n")
	}
	g.ClearAllFilters()
	if !g.AllowURL("http://example.com/") {
		t.Fatalf("cleared blacklist should allow everything\n")
	}
}

func TestGateLocalRules(t *testing.T) {
	g := chrome.NewRequestGate("/srv/pages")
	g.SetFilteringMode(webview.FilterWhitelist)
	g.AddFilter("local://assets/*")

	var inputs = []struct {
		in       string
		expected bool
	}{
		{
			"file:///srv/pages/assets/app.css",
			true,
		},
		{
			"file:///srv/pages/other/app.css",
			false,
		},
		{
			"file:///etc/passwd",
			false,
		},
		{
			"http://example.com/assets/app.css",
			false,
		},
	}
	for _, in := range inputs {
		if got := g.AllowURL(in.in); got != in.expected {
			t.Fatalf("AllowURL(%s) was %v expected %v\n", in.in, got, in.expected)
		}
	}
}

func TestGateLocalRulesNoBaseDir(t *testing.T) {
	g := chrome.NewRequestGate("")
	g.SetFilteringMode(webview.FilterWhitelist)
	g.AddFilter("local://assets/*")
	if g.AllowURL("file:///assets/app.css") {
		t.Fatalf("local rules without a base directory should never match\n")
	}
}

func TestGateRewriteFirstMatchWins(t *testing.T) {
	g := chrome.NewRequestGate("")
	g.SetDefinition("api", webview.HeaderDefinition{"X-Api-Key": "secret"})
	g.SetDefinition("tracking", webview.HeaderDefinition{"DNT": "1"})
	g.AddRewriteRule("*://api.example.com/*", "api")
	g.AddRewriteRule("*example.com*", "tracking")

	def, ok := g.RewriteFor("https://api.example.com/v1/users")
	if !ok {
		t.Fatalf("expected a rewrite definition\n")
	}
	if def["X-Api-Key"] != "secret" {
		t.Fatalf("expected first matching rule to win, got %v\n", def)
	}

	def, ok = g.RewriteFor("https://www.example.com/")
	if !ok || def["DNT"] != "1" {
		t.Fatalf("expected tracking definition for non api URL, got %v %v\n", def, ok)
	}

	if _, ok = g.RewriteFor("https://other.org/"); ok {
		t.Fatalf("expected no rewrite for unmatched URL\n")
	}
}

func TestGateRewriteUndefinedDefinitionIsInert(t *testing.T) {
	g := chrome.NewRequestGate("")
	g.AddRewriteRule("*", "missing")
	g.SetDefinition("fallback", webview.HeaderDefinition{"X-Found": "yes"})
	g.AddRewriteRule("*", "fallback")

	def, ok := g.RewriteFor("http://example.com/")
	if !ok || def["X-Found"] != "yes" {
		t.Fatalf("rule with undefined definition should be skipped, got %v %v\n", def, ok)
	}
}

func TestGateRewriteDefinitionUpdate(t *testing.T) {
	g := chrome.NewRequestGate("")
	g.SetDefinition("api", webview.HeaderDefinition{"X-Version": "1"})
	g.AddRewriteRule("*", "api")
	g.SetDefinition("api", webview.HeaderDefinition{"X-Version": "2"})

	def, _ := g.RewriteFor("http://example.com/")
	if def["X-Version"] != "2" {
		t.Fatalf("definition update should apply to existing rules, got %v\n", def)
	}
}

func TestGateRemoveRewriteRules(t *testing.T) {
	g := chrome.NewRequestGate("")
	g.SetDefinition("a", webview.HeaderDefinition{"A": "1"})
	g.SetDefinition("b", webview.HeaderDefinition{"B": "1"})
	g.AddRewriteRule("*a.com*", "a")
	g.AddRewriteRule("*b.com*", "b")
	g.AddRewriteRule("*b2.com*", "b")

	g.RemoveRewriteRule("*a.com*")
	if _, ok := g.RewriteFor("http://a.com/"); ok {
		t.Fatalf("removed rule should not match\n")
	}

	g.RemoveRewriteRulesByDefinitionName("b")
	if _, ok := g.RewriteFor("http://b.com/"); ok {
		t.Fatalf("rules for removed definition name should not match\n")
	}
	if _, ok := g.RewriteFor("http://b2.com/"); ok {
		t.Fatalf("all rules for removed definition name should be gone\n")
	}
}

func TestGateRemoveAllRewriteRules(t *testing.T) {
	g := chrome.NewRequestGate("")
	g.SetDefinition("a", webview.HeaderDefinition{"A": "1"})
	g.AddRewriteRule("*", "a")
	g.RemoveRewriteRulesByDefinitionName("")
	if _, ok := g.RewriteFor("http://a.com/"); ok {
		t.Fatalf("empty definition name should remove every rule\n")
	}
}

func TestWildcardMatch(t *testing.T) {
	var inputs = []struct {
		pattern  string
		in       string
		expected bool
	}{
		{"*", "anything at all", true},
		{"", "", true},
		{"", "x", false},
		{"http://example.com/*", "http://example.com/a/b/c", true},
		{"http://example.com/*", "https://example.com/a", false},
		{"*.png", "http://example.com/img.png", true},
		{"*.png", "http://example.com/img.png?v=2", false},
		{"*.p?g", "http://example.com/img.pngx", false},
		{"*://?.example.com/*", "http://a.example.com/x", true},
		{"*://?.example.com/*", "http://ab.example.com/x", false},
		{"*a*b*", "xxaxxxbxx", true},
		{"*a*b*", "xxbxxxaxx", false},
	}
	for _, in := range inputs {
		if got := chrome.WildcardMatch(in.pattern, in.in); got != in.expected {
			t.Fatalf("match(%s, %s) was %v expected %v\n", in.pattern, in.in, got, in.expected)
		}
	}
}

package profile_test

import (
	"os"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"gitlab.com/offview/profile"
	"gitlab.com/offview/webview"
)

func testStore(t *testing.T, name string) *profile.Store {
	if err := os.RemoveAll("testdata/" + name); err != nil {
		t.Fatalf("error clearing test store: %s\n", err)
	}
	s := profile.NewStore("testdata", name)
	if err := s.Init(); err != nil {
		t.Fatalf("error opening store: %s\n", err)
	}
	return s
}

func TestStoreZoom(t *testing.T) {
	s := testStore(t, "zoom")
	defer s.Close()

	if _, err := s.Zoom("example.com"); err != profile.ErrNotFound {
		t.Fatalf("expected not found for unsaved host, got: %v\n", err)
	}

	if err := s.SaveZoom("example.com", 150); err != nil {
		t.Fatalf("error saving zoom: %s\n", err)
	}
	percent, err := s.Zoom("example.com")
	if err != nil {
		t.Fatalf("error reading zoom: %s\n", err)
	}
	if percent != 150 {
		t.Fatalf("expected 150 got %d\n", percent)
	}

	if err := s.SaveZoom("example.com", 80); err != nil {
		t.Fatalf("error updating zoom: %s\n", err)
	}
	percent, err = s.Zoom("example.com")
	if err != nil {
		t.Fatalf("error reading zoom: %s\n", err)
	}
	if percent != 80 {
		t.Fatalf("expected 80 got %d\n", percent)
	}

	if err := s.DeleteZoom("example.com"); err != nil {
		t.Fatalf("error deleting zoom: %s\n", err)
	}
	if _, err := s.Zoom("example.com"); err != profile.ErrNotFound {
		t.Fatalf("expected not found after delete, got: %v\n", err)
	}
}

func TestStoreHistory(t *testing.T) {
	s := testStore(t, "history")
	defer s.Close()

	urls := []string{"http://example.com/", "http://example.com/a", "http://example.com/b"}
	for i, u := range urls {
		if err := s.AddHistory(u, "page"); err != nil {
			t.Fatalf("error adding visit %d: %s\n", i, err)
		}
	}

	visits, err := s.History(0)
	if err != nil {
		t.Fatalf("error reading history: %s\n", err)
	}
	if len(visits) != len(urls) {
		t.Fatalf("expected %d visits got %d: %s\n", len(urls), len(visits), spew.Sdump(visits))
	}
	for i, visit := range visits {
		if visit.URL != urls[i] {
			t.Fatalf("visit %d out of order, expected %s got %s\n", i, urls[i], visit.URL)
		}
		if visit.Observed.IsZero() {
			t.Fatalf("visit %d has no observed time\n", i)
		}
	}

	visits, err = s.History(2)
	if err != nil {
		t.Fatalf("error reading limited history: %s\n", err)
	}
	if len(visits) != 2 {
		t.Fatalf("expected 2 visits got %d\n", len(visits))
	}
}

func TestStorePolicy(t *testing.T) {
	s := testStore(t, "policy")
	defer s.Close()

	policy := &profile.Policy{
		Name:          "quiet",
		FilteringMode: "blacklist",
		Filters:       []string{"*tracker*", "*.doubleclick.net/*"},
		Definitions: map[string]webview.HeaderDefinition{
			"anon": {"User-Agent": "offview/1.0", "DNT": "1"},
		},
		Rules: []profile.PolicyRule{
			{Rule: "http://*", Definition: "anon"},
		},
	}
	if err := s.SavePolicy(policy); err != nil {
		t.Fatalf("error saving policy: %s\n", err)
	}

	got, err := s.Policy("quiet")
	if err != nil {
		t.Fatalf("error reading policy: %s\n", err)
	}
	if got.FilteringMode != "blacklist" || len(got.Filters) != 2 || len(got.Rules) != 1 {
		t.Fatalf("policy did not round trip: %s\n", spew.Sdump(got))
	}
	if got.Definitions["anon"]["User-Agent"] != "offview/1.0" {
		t.Fatalf("definition did not round trip: %s\n", spew.Sdump(got.Definitions))
	}

	policies, err := s.Policies()
	if err != nil {
		t.Fatalf("error listing policies: %s\n", err)
	}
	if len(policies) != 1 {
		t.Fatalf("expected 1 policy got %d\n", len(policies))
	}

	if err := s.DeletePolicy("quiet"); err != nil {
		t.Fatalf("error deleting policy: %s\n", err)
	}
	if _, err := s.Policy("quiet"); err != profile.ErrNotFound {
		t.Fatalf("expected not found after delete, got: %v\n", err)
	}
}

func TestStorePolicyRejectsInvalid(t *testing.T) {
	s := testStore(t, "badpolicy")
	defer s.Close()

	policy := &profile.Policy{
		Name:          "broken",
		FilteringMode: "blacklist",
		Rules:         []profile.PolicyRule{{Rule: "http://*", Definition: "missing"}},
	}
	if err := s.SavePolicy(policy); err == nil {
		t.Fatalf("expected error saving policy with dangling definition\n")
	}
	if err := s.SavePolicy(&profile.Policy{}); err == nil {
		t.Fatalf("expected error saving unnamed policy\n")
	}
}

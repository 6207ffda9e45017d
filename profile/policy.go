package profile

import (
	"github.com/pkg/errors"
	"gitlab.com/offview/webview"
)

// Policy is a named request gate configuration that can be stored in a
// profile and applied to views. The toml tags match the policy file
// format the command line takes.
type Policy struct {
	Name          string                              `toml:"name"`
	FilteringMode string                              `toml:"filtering_mode"`
	Filters       []string                            `toml:"filters"`
	Definitions   map[string]webview.HeaderDefinition `toml:"definitions"`
	Rules         []PolicyRule                        `toml:"rules"`
}

// PolicyRule binds a URL wildcard rule to a header definition
type PolicyRule struct {
	Rule       string `toml:"rule"`
	Definition string `toml:"definition"`
}

// Validate rejects unknown filtering modes and rules that reference a
// definition the policy does not carry
func (p *Policy) Validate() error {
	if _, ok := webview.ParseURLFilteringMode(p.FilteringMode); !ok {
		return errors.Errorf("unknown filtering mode %q", p.FilteringMode)
	}
	for _, rule := range p.Rules {
		if rule.Rule == "" {
			return errors.New("rewrite rule needs a url pattern")
		}
		if _, ok := p.Definitions[rule.Definition]; !ok {
			return errors.Errorf("rule %q references unknown definition %q", rule.Rule, rule.Definition)
		}
	}
	return nil
}

// Apply configures a view's request gate from the policy
func (p *Policy) Apply(view webview.View) error {
	if err := p.Validate(); err != nil {
		return err
	}
	mode, _ := webview.ParseURLFilteringMode(p.FilteringMode)

	view.ClearAllURLFilters()
	view.RemoveHeaderRewriteRulesByDefinitionName("")
	view.SetURLFilteringMode(mode)
	for _, filter := range p.Filters {
		view.AddURLFilter(filter)
	}
	for name, definition := range p.Definitions {
		view.SetHeaderDefinition(name, definition)
	}
	for _, rule := range p.Rules {
		view.AddHeaderRewriteRule(rule.Rule, rule.Definition)
	}
	return nil
}

package fix

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SiteRule is one extra redirector pattern: links matching Pattern carry
// their real destination in the Param query parameter.
type SiteRule struct {
	Pattern string `yaml:"pattern"`
	Param   string `yaml:"param"`
}

// LoadSiteRules reads extra redirector rules from a YAML file:
//
//	redirectors:
//	  - pattern: "http*://tracker.example/*?u=*"
//	    param: u
func LoadSiteRules(path string) ([]SiteRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site rules: %w", err)
	}

	var file struct {
		Redirectors []SiteRule `yaml:"redirectors"`
	}

	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse site rules: %w", err)
	}

	for i, rule := range file.Redirectors {
		if rule.Pattern == "" || rule.Param == "" {
			return nil, fmt.Errorf("site rule %d: pattern and param are required", i)
		}
	}

	return file.Redirectors, nil
}

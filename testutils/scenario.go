package testutils

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"gopkg.in/yaml.v3"
)

// ScenarioOptions mirrors the CLI flags a scenario runs with
type ScenarioOptions struct {
	Fuzzy      bool `yaml:"fuzzy"`
	AddNewline bool `yaml:"add_newline"`
	Strict     bool `yaml:"strict"`
}

// Scenario is one end-to-end repair case loaded from YAML
type Scenario struct {
	Name string `yaml:"name"`
	// Target is a path relative to the fixture tree; empty means the tree itself
	Target  string            `yaml:"target"`
	Files   map[string]string `yaml:"files"`
	Options ScenarioOptions   `yaml:"options"`
	Patch   string            `yaml:"patch"`
	// Want is the exact expected output when set
	Want            string   `yaml:"want"`
	WantContains    []string `yaml:"want_contains"`
	WantNotContains []string `yaml:"want_not_contains"`
	// WantError is a substring of the expected error message
	WantError string `yaml:"want_error"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadScenarios decodes every *.yaml file in dir, in file name order
func LoadScenarios(t *testing.T, dir string) []Scenario {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(paths)

	var scenarios []Scenario
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		var sf scenarioFile
		if err := yaml.Unmarshal(data, &sf); err != nil {
			t.Fatalf("failed to parse %s: %v", p, err)
		}
		scenarios = append(scenarios, sf.Scenarios...)
	}
	if len(scenarios) == 0 {
		t.Fatalf("no scenarios found in %s", dir)
	}
	return scenarios
}

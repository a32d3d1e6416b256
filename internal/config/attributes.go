package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CustomAttribute is one user-defined span attribute: a name and an expr
// expression evaluated against the coroutine's reconstructed state.
type CustomAttribute struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expr"`
}

type attributesFile struct {
	Attributes []CustomAttribute `yaml:"attributes"`
}

// LoadAttributes reads custom attribute definitions from a YAML file:
//
//	attributes:
//	  - name: team
//	    expr: 'split(label, "/")[0]'
//
// An empty path yields no attributes.
func LoadAttributes(path string) ([]CustomAttribute, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attributes file: %w", err)
	}

	var f attributesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing attributes file: %w", err)
	}

	for _, a := range f.Attributes {
		if a.Name == "" || a.Expression == "" {
			return nil, fmt.Errorf("attribute definitions need both name and expr")
		}
	}
	return f.Attributes, nil
}

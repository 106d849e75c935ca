package infra

import (
	"fmt"
	"os"

	"whitepaper-guard/analysis/domain"

	"gopkg.in/yaml.v3"
)

// Formato do arquivo:
//
//	rubrics:
//	  - version: v3
//	    temperature: 0.1
//	    maxOutputTokens: 2048
//	    criteria: ["..."]
type rubricFile struct {
	Rubrics []domain.Rubric `yaml:"rubrics"`
}

// LoadRubricFile lê o arquivo e devolve as rubricas embutidas mais as do
// arquivo; uma versão repetida no arquivo substitui a embutida.
func LoadRubricFile(path string) (domain.RubricSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rubric file: %w", err)
	}
	return ParseRubrics(raw)
}

func ParseRubrics(raw []byte) (domain.RubricSet, error) {
	var f rubricFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse rubric file: %w", err)
	}
	extra := domain.RubricSet{}
	for _, r := range f.Rubrics {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := extra[r.Version]; dup {
			return nil, fmt.Errorf("rubric %s defined twice", r.Version)
		}
		extra[r.Version] = r
	}
	return domain.BuiltinRubrics.Merge(extra), nil
}

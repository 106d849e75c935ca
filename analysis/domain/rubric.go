package domain

import (
	"fmt"
	"sort"
)

// Rubric é a parte versionada do prompt: critérios de avaliação e parâmetros
// de geração. A versão usada volta junto com cada resultado para que quem
// guarda históricos possa fixá-la.
type Rubric struct {
	Version         string   `yaml:"version" json:"version"`
	Temperature     float32  `yaml:"temperature" json:"temperature"`
	MaxOutputTokens int      `yaml:"maxOutputTokens" json:"maxOutputTokens"`
	Criteria        []string `yaml:"criteria" json:"criteria"`
}

func (r Rubric) Validate() error {
	if r.Version == "" {
		return fmt.Errorf("rubric: version is required")
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return fmt.Errorf("rubric %s: temperature must be in [0,2]", r.Version)
	}
	if r.MaxOutputTokens <= 0 {
		return fmt.Errorf("rubric %s: maxOutputTokens must be > 0", r.Version)
	}
	if len(r.Criteria) == 0 {
		return fmt.Errorf("rubric %s: at least one criterion is required", r.Version)
	}
	return nil
}

var baseCriteria = []string{
	"Promises of unrealistic returns",
	"Technical claims with low feasibility",
	"Opacity of team information",
	"Unnatural tokenomics",
	"Unclear roadmap",
	"Absence of any mention of legal compliance",
	"Track record of community and partnerships",
	"Quality and professionalism of the whitepaper",
}

// BuiltinRubrics: v1 é a rubrica histórica (temperatura alta); v2 mantém os
// critérios e baixa a temperatura para reduzir a variação entre execuções.
var BuiltinRubrics = RubricSet{
	"v1": {Version: "v1", Temperature: 0.7, MaxOutputTokens: 2048, Criteria: baseCriteria},
	"v2": {Version: "v2", Temperature: 0.2, MaxOutputTokens: 2048, Criteria: baseCriteria},
}

const DefaultRubricVersion = "v2"

type RubricSet map[string]Rubric

func (s RubricSet) Get(version string) (Rubric, error) {
	r, ok := s[version]
	if !ok {
		return Rubric{}, fmt.Errorf("rubric %q not found (available: %v)", version, s.Versions())
	}
	return r, nil
}

func (s RubricSet) Versions() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Merge devolve um novo conjunto com as rubricas de other sobrepondo as de s.
func (s RubricSet) Merge(other RubricSet) RubricSet {
	out := make(RubricSet, len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

package domain

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// AnalysisResult é o formato final entregue ao chamador. Todos os campos
// estão sempre presentes; listas vazias são [] e nunca null.
type AnalysisResult struct {
	RiskScore       int       `json:"riskScore"`
	RiskLevel       RiskLevel `json:"riskLevel"`
	RedFlags        []string  `json:"redFlags"`
	Warnings        []string  `json:"warnings"`
	PositivePoints  []string  `json:"positivePoints"`
	Summary         string    `json:"summary"`
	Recommendations []string  `json:"recommendations"`
}

// TierTable é a tabela de faixas usada para derivar o RiskLevel a partir do
// score. O nível informado pelo provedor nunca é usado.
type TierTable struct {
	Version   string
	HighMin   int
	MediumMin int
}

// DefaultTiers: >= 71 high, 31..70 medium, <= 30 low.
var DefaultTiers = TierTable{Version: "tiers-1", HighMin: 71, MediumMin: 31}

func (t TierTable) Level(score int) RiskLevel {
	switch {
	case score >= t.HighMin:
		return RiskHigh
	case score >= t.MediumMin:
		return RiskMedium
	default:
		return RiskLow
	}
}

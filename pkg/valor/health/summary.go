package health

import (
	"github.com/komsit37/valor/pkg/valor/types"
)

// Aggregate summarizes a batch of health records.
type Aggregate struct {
	Companies int     `json:"companies"`
	MeanNCG   float64 `json:"mean_ncg"`
	Scissor   int     `json:"scissor_effect"`
	HighRisk  int     `json:"high_risk"`
	Scored    int     `json:"scored"`
	MeanZ     float64 `json:"mean_z"`
}

func Summarize(results []*types.FleurietResult) Aggregate {
	var a Aggregate
	var ncg, z float64
	for _, r := range results {
		a.Companies++
		ncg += r.NCG
		if r.Scissor {
			a.Scissor++
		}
		if r.Risk == RiskHigh {
			a.HighRisk++
		}
		if r.ZScore != nil {
			a.Scored++
			z += *r.ZScore
		}
	}
	if a.Companies > 0 {
		a.MeanNCG = ncg / float64(a.Companies)
	}
	if a.Scored > 0 {
		a.MeanZ = z / float64(a.Scored)
	}
	return a
}

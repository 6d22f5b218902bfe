// Package outcome turns two team reports into a bounded round win estimate.
package outcome

import (
	"fmt"
	"math"
	"sort"

	"github.com/pable/go-cs-tactics/internal/config"
	"github.com/pable/go-cs-tactics/internal/geom"
	"github.com/pable/go-cs-tactics/internal/model"
)

const (
	minProbability = 0.05
	maxProbability = 0.95
)

// Factor names.
const (
	FactorZoneControl = "zone_control"
	FactorCohesion    = "cohesion"
	FactorTrade       = "trade_efficiency"
	FactorSideScore   = "execution_vs_setup"
)

// Predict starts from an even prior and shifts it toward side A by capped
// adjustments. a must be side A's report and b side B's.
func Predict(a, b model.TeamTacticalReport, cfg config.Outcome) model.RoundOutcomeEstimate {
	factors := []model.Factor{
		adjust(FactorZoneControl, a.MeanPowerControl()-b.MeanPowerControl(), cfg.ZoneControlWeight, cfg.ZoneControlCap, "power positions"),
		adjust(FactorCohesion, a.Cohesion-b.Cohesion, cfg.CohesionWeight, cfg.CohesionCap, "team cohesion"),
		adjust(FactorTrade, a.TradeEfficiency-b.TradeEfficiency, cfg.TradeWeight, cfg.TradeCap, "trade spacing"),
		sideFactor(a, b, cfg),
	}

	var total float64
	for _, f := range factors {
		total += f.Adjustment
	}
	total = geom.Clamp(total, -cfg.TotalCap, cfg.TotalCap)

	pA := geom.Clamp(0.5+total, minProbability, maxProbability)
	out := model.RoundOutcomeEstimate{ProbabilityA: pA, ProbabilityB: 1 - pA}

	for _, f := range factors {
		if math.Abs(f.Adjustment) >= cfg.ReportThreshold && f.Adjustment != 0 {
			out.Factors = append(out.Factors, f)
		}
	}
	sort.SliceStable(out.Factors, func(i, j int) bool {
		return math.Abs(out.Factors[i].Adjustment) > math.Abs(out.Factors[j].Adjustment)
	})
	return out
}

func adjust(name string, diff, weight, limit float64, what string) model.Factor {
	adj := geom.Clamp(diff*weight, -limit, limit)
	return model.Factor{Name: name, Adjustment: adj, Statement: statement(adj, what)}
}

// sideFactor weighs A's execution against B's setup.
func sideFactor(a, b model.TeamTacticalReport, cfg config.Outcome) model.Factor {
	adj := geom.Clamp((a.SideScore()-b.SideScore())*cfg.SideScoreWeight, -cfg.SideScoreCap, cfg.SideScoreCap)
	var s string
	switch {
	case adj > 0:
		s = fmt.Sprintf("Side A's site execution (%.2f) outweighs side B's setup (%.2f) (%+.1f%%)",
			a.SideScore(), b.SideScore(), adj*100)
	case adj < 0:
		s = fmt.Sprintf("Side B's setup (%.2f) outweighs side A's site execution (%.2f) (%+.1f%%)",
			b.SideScore(), a.SideScore(), -adj*100)
	}
	return model.Factor{Name: FactorSideScore, Adjustment: adj, Statement: s}
}

func statement(adj float64, what string) string {
	switch {
	case adj > 0:
		return fmt.Sprintf("Side A has better %s (%+.1f%%)", what, adj*100)
	case adj < 0:
		return fmt.Sprintf("Side B has better %s (%+.1f%%)", what, -adj*100)
	}
	return ""
}

package model

import (
	"fmt"
	"strings"
)

// ValidationError 汇总后端返回数据的越界问题
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid backend data: " + strings.Join(e.Problems, "; ")
}

type problems []string

func (p *problems) checkRange(name string, v, lo, hi int) {
	if v < lo || v > hi {
		*p = append(*p, fmt.Sprintf("%s=%d out of [%d,%d]", name, v, lo, hi))
	}
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Problems: p}
}

// Validate 检查分析结果的边界约束，不修改结果本身
func (r *AnalysisResult) Validate() error {
	var p problems
	p.checkRange("climateRisks.flood", r.ClimateRisks.Flood, 1, 10)
	p.checkRange("climateRisks.heat", r.ClimateRisks.Heat, 1, 10)
	p.checkRange("climateRisks.drought", r.ClimateRisks.Drought, 1, 10)
	p.checkRange("climateRisks.forestFire", r.ClimateRisks.ForestFire, 1, 10)
	p.checkRange("investmentScore", r.InvestmentScore, 1, 100)
	if r.MarketValueEstimation.Min > r.MarketValueEstimation.Max {
		p = append(p, fmt.Sprintf("marketValueEstimation.min=%g > max=%g",
			r.MarketValueEstimation.Min, r.MarketValueEstimation.Max))
	}
	return p.err()
}

// Validate 检查匹配结果的边界约束
func (m *MatchResult) Validate() error {
	var p problems
	p.checkRange("matchingScore", m.MatchingScore, 1, 100)
	if len(m.Top3Products) > 3 {
		p = append(p, fmt.Sprintf("top3Products has %d items", len(m.Top3Products)))
	}
	return p.err()
}

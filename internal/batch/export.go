package batch

import (
	"fmt"
	"strings"

	"github.com/iWorld-y/propai/internal/sheet"
)

// 导出时追加的列
const (
	ColScore     = "AI Investment Score"
	ColValueMin  = "AI Định giá Min (Tỷ)"
	ColValueMax  = "AI Định giá Max (Tỷ)"
	ColRisk      = "Rủi ro khí hậu"
	ColFunctions = "Mô hình đề xuất"
	ColReasoning = "Lý do đánh giá"
	ColStatus    = "AI Status"
)

// Export 生成导出记录：原始列 + 分析列，失败行追加状态列，其它行原样输出
func Export(rows []Row) []sheet.Record {
	out := make([]sheet.Record, len(rows))
	for i, row := range rows {
		rec := row.Record.Clone()
		switch {
		case row.Result != nil:
			r := row.Result
			rec = rec.
				With(ColScore, r.InvestmentScore).
				With(ColValueMin, r.MarketValueEstimation.Min).
				With(ColValueMax, r.MarketValueEstimation.Max).
				With(ColRisk, fmt.Sprintf("Ngập:%d/10 - Nhiệt:%d/10", r.ClimateRisks.Flood, r.ClimateRisks.Heat)).
				With(ColFunctions, strings.Join(r.SuggestedFunctions, ", ")).
				With(ColReasoning, r.Reasoning)
		case row.Err != "":
			rec = rec.With(ColStatus, "Error: "+row.Err)
		}
		out[i] = rec
	}
	return out
}

package batch

import (
	"reflect"
	"testing"

	"github.com/iWorld-y/propai/internal/model"
	"github.com/iWorld-y/propai/internal/sheet"
)

func TestExport(t *testing.T) {
	orig := sheet.Record{{Header: "Địa chỉ", Value: "123 Lê Lợi"}}
	rows := []Row{
		{Record: orig, Status: StatusCompleted, Result: &model.AnalysisResult{
			InvestmentScore:       75,
			MarketValueEstimation: model.ValueEstimation{Min: 19, Max: 23.5},
			ClimateRisks:          model.ClimateRisk{Flood: 6, Heat: 8},
			SuggestedFunctions:    []string{"Ở", "Cho thuê"},
			Reasoning:             "Trung tâm",
		}},
		{Record: orig, Status: StatusError, Err: "quota"},
		{Record: orig, Status: StatusPending},
	}
	out := Export(rows)

	want0 := sheet.Record{
		{Header: "Địa chỉ", Value: "123 Lê Lợi"},
		{Header: ColScore, Value: 75},
		{Header: ColValueMin, Value: 19.0},
		{Header: ColValueMax, Value: 23.5},
		{Header: ColRisk, Value: "Ngập:6/10 - Nhiệt:8/10"},
		{Header: ColFunctions, Value: "Ở, Cho thuê"},
		{Header: ColReasoning, Value: "Trung tâm"},
	}
	if !reflect.DeepEqual(out[0], want0) {
		t.Errorf("completed row = %+v", out[0])
	}
	if v, _ := out[1].Get(ColStatus); v != "Error: quota" {
		t.Errorf("error row status = %v", v)
	}
	if !reflect.DeepEqual(out[2], orig) {
		t.Errorf("pending row should be unaugmented: %+v", out[2])
	}
	if len(orig) != 1 {
		t.Error("Export must not mutate the original record")
	}
	if h := sheet.Headers(out); h[len(h)-1] != ColStatus {
		t.Errorf("headers = %v", h)
	}
}

package batch

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iWorld-y/propai/internal/backend"
	"github.com/iWorld-y/propai/internal/extract"
	"github.com/iWorld-y/propai/internal/model"
	"github.com/iWorld-y/propai/internal/sheet"
)

var noWait = PacerFunc(func(context.Context) error { return nil })

// mockAnalyzer 按地址决定成功或失败，并记录调用
type mockAnalyzer struct {
	mu    sync.Mutex
	fail  map[string]error
	calls []string
}

func (m *mockAnalyzer) Analyze(ctx context.Context, in model.PropertyInput) (*model.AnalysisResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, in.Address)
	m.mu.Unlock()
	if err, ok := m.fail[in.Address]; ok {
		return nil, err
	}
	return &model.AnalysisResult{InvestmentScore: len(in.Address) * 10}, nil
}

func records(addresses ...string) []sheet.Record {
	out := make([]sheet.Record, len(addresses))
	for i, a := range addresses {
		out[i] = sheet.Record{{Header: "Địa chỉ", Value: a}, {Header: "Giá", Value: "5 tỷ"}}
	}
	return out
}

func statuses(rows []Row) []Status {
	out := make([]Status, len(rows))
	for i, r := range rows {
		out[i] = r.Status
	}
	return out
}

func TestRun_RowFailureIsIsolated(t *testing.T) {
	m := &mockAnalyzer{fail: map[string]error{"c": errors.New("quota")}}
	var resolved []int
	p := &Processor{Analyzer: m, Pacer: noWait, OnUpdate: func(u Update) {
		if u.Index >= 0 && u.Rows[u.Index].Status != StatusProcessing {
			resolved = append(resolved, u.Progress.Percent)
		}
	}}

	rows := p.Run(context.Background(), NewRows(records("a", "b", "c", "d", "e")))

	want := []Status{StatusCompleted, StatusCompleted, StatusError, StatusCompleted, StatusCompleted}
	if got := statuses(rows); !reflect.DeepEqual(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
	if rows[2].Err != "quota" || rows[2].Result != nil {
		t.Errorf("failed row = %+v", rows[2])
	}
	if !reflect.DeepEqual(resolved, []int{20, 40, 60, 80, 100}) {
		t.Errorf("progress = %v", resolved)
	}
	for i := 1; i < len(resolved); i++ {
		if resolved[i] <= resolved[i-1] {
			t.Errorf("progress not strictly increasing: %v", resolved)
		}
	}
}

func TestRun_ResumeSkipsCompleted(t *testing.T) {
	m := &mockAnalyzer{fail: map[string]error{"b": errors.New("timeout")}}
	p := &Processor{Analyzer: m, Pacer: noWait}
	first := p.Run(context.Background(), NewRows(records("a", "b", "c")))
	firstA := first[0].Result

	m.calls = nil
	delete(m.fail, "b")
	second := p.Run(context.Background(), first)

	if !reflect.DeepEqual(m.calls, []string{"b"}) {
		t.Errorf("resume called %v, want only the failed row", m.calls)
	}
	if second[0].Result != firstA {
		t.Error("completed row must be left untouched")
	}
	if got := statuses(second); !reflect.DeepEqual(got, []Status{StatusCompleted, StatusCompleted, StatusCompleted}) {
		t.Errorf("statuses = %v", got)
	}
	if second[1].Err != "" {
		t.Errorf("error message should be cleared on success, got %q", second[1].Err)
	}

	// 全部完成时再次运行不调用后端，进度仍为 100
	m.calls = nil
	var last Progress
	p.OnUpdate = func(u Update) { last = u.Progress }
	p.Run(context.Background(), second)
	if len(m.calls) != 0 || last.Percent != 100 {
		t.Errorf("calls = %v, progress = %+v", m.calls, last)
	}
}

func TestRun_InputNotMutated(t *testing.T) {
	rows := NewRows(records("a"))
	p := &Processor{Analyzer: &mockAnalyzer{}, Pacer: noWait}
	out := p.Run(context.Background(), rows)
	if rows[0].Status != StatusPending {
		t.Errorf("input row mutated: %s", rows[0].Status)
	}
	if out[0].Status != StatusCompleted {
		t.Errorf("output row = %s", out[0].Status)
	}
}

func TestRun_SnapshotsPublishedBeforeBackendCall(t *testing.T) {
	var seen []Status
	p := &Processor{Pacer: noWait}
	p.OnUpdate = func(u Update) { seen = append(seen, u.Rows[0].Status) }
	p.Analyzer = analyzerFunc(func(ctx context.Context, in model.PropertyInput) (*model.AnalysisResult, error) {
		if len(seen) != 1 || seen[0] != StatusProcessing {
			t.Errorf("processing snapshot not published before analysis: %v", seen)
		}
		return &model.AnalysisResult{}, nil
	})
	p.Run(context.Background(), NewRows(records("a")))
	if len(seen) != 2 || seen[1] != StatusCompleted {
		t.Errorf("seen = %v", seen)
	}
}

func TestRun_EmptyErrorMessage(t *testing.T) {
	p := &Processor{Pacer: noWait, Analyzer: analyzerFunc(func(context.Context, model.PropertyInput) (*model.AnalysisResult, error) {
		return nil, errors.New("")
	})}
	rows := p.Run(context.Background(), NewRows(records("a")))
	if rows[0].Err != DefaultErrorMessage {
		t.Errorf("Err = %q, want %q", rows[0].Err, DefaultErrorMessage)
	}
}

func TestRun_CancelledContextFailsRemainingRows(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Processor{Analyzer: &mockAnalyzer{}, Pacer: NewFixedPacer(time.Hour)}
	rows := p.Run(ctx, NewRows(records("a", "b")))
	if got := statuses(rows); !reflect.DeepEqual(got, []Status{StatusError, StatusError}) {
		t.Errorf("statuses = %v", got)
	}
}

// 3 行中第 2 行后端返回无法解析的内容
func TestRun_EndToEndMalformedRow(t *testing.T) {
	gen := backend.GeneratorFunc(func(ctx context.Context, req *backend.Request) (*backend.Response, error) {
		if strings.Contains(req.Prompt, "row-2") {
			return &backend.Response{Text: "Không thể phân tích"}, nil
		}
		return &backend.Response{Text: "```json\n{\"investmentScore\": 70}\n```"}, nil
	})
	an := analyzerFunc(func(ctx context.Context, in model.PropertyInput) (*model.AnalysisResult, error) {
		resp, err := gen.Generate(ctx, &backend.Request{Prompt: in.Address})
		if err != nil {
			return nil, err
		}
		return extract.ParseAnalysis(resp)
	})
	var last Progress
	p := &Processor{Analyzer: an, Pacer: noWait, OnUpdate: func(u Update) { last = u.Progress }}
	rows := p.Run(context.Background(), NewRows(records("row-1", "row-2", "row-3")))

	if got := statuses(rows); !reflect.DeepEqual(got, []Status{StatusCompleted, StatusError, StatusCompleted}) {
		t.Errorf("statuses = %v", got)
	}
	if last.Percent != 100 {
		t.Errorf("final progress = %d", last.Percent)
	}
}

func TestFixedPacer(t *testing.T) {
	if NewFixedPacer(10*time.Millisecond) != FixedPacer(MinPacing) {
		t.Error("pacing below 1s should be raised")
	}
	if NewFixedPacer(3*time.Second) != FixedPacer(3*time.Second) {
		t.Error("pacing above 1s should be kept")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewFixedPacer(time.Hour).Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestResetFailedAndSummarize(t *testing.T) {
	rows := []Row{
		{ID: 0, Status: StatusCompleted, Result: &model.AnalysisResult{InvestmentScore: 80}},
		{ID: 1, Status: StatusError, Err: "x"},
		{ID: 2, Status: StatusCompleted, Result: &model.AnalysisResult{InvestmentScore: 60}},
		{ID: 3, Status: StatusPending},
	}
	s := Summarize(rows)
	if s != (Summary{Total: 4, Completed: 2, Failed: 1, Pending: 1, AverageScore: 70}) {
		t.Errorf("Summarize() = %+v", s)
	}

	reset := ResetFailed(rows)
	if reset[1].Status != StatusPending || reset[1].Err != "" {
		t.Errorf("reset row = %+v", reset[1])
	}
	if rows[1].Status != StatusError {
		t.Error("ResetFailed must not mutate its input")
	}
	if reset[0].Status != StatusCompleted {
		t.Error("completed rows must stay completed")
	}
}

type analyzerFunc func(ctx context.Context, in model.PropertyInput) (*model.AnalysisResult, error)

func (f analyzerFunc) Analyze(ctx context.Context, in model.PropertyInput) (*model.AnalysisResult, error) {
	return f(ctx, in)
}

package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/propai/internal/batch"
	"github.com/iWorld-y/propai/internal/config"
	"github.com/iWorld-y/propai/internal/model"
	"github.com/iWorld-y/propai/internal/server"
	"github.com/iWorld-y/propai/internal/service"
)

type okAnalyzer struct{}

func (okAnalyzer) Analyze(ctx context.Context, in model.PropertyInput) (*model.AnalysisResult, error) {
	return &model.AnalysisResult{InvestmentScore: 60}, nil
}

func (okAnalyzer) Match(ctx context.Context, p model.PropertyInput, a *model.AnalysisResult, c model.CustomerProfile) (*model.MatchResult, error) {
	return &model.MatchResult{}, nil
}

func TestNewApp_CleanupStopsRunningBatches(t *testing.T) {
	waiting := batch.PacerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	jobs := service.NewJobManager()
	svc := service.NewPropAIService(okAnalyzer{}, waiting, jobs, nil, log.DefaultLogger)
	hs := server.NewHTTPServer(&config.ServerConfig{}, svc, log.DefaultLogger)

	_, cleanup, err := newApp(log.DefaultLogger, hs, svc, jobs, &config.ServerConfig{JobTTL: time.Hour})
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	reply, err := svc.CreateBatch(context.Background(), "rows.csv", strings.NewReader("Address\nA\nB\n"))
	if err != nil {
		t.Fatal(err)
	}

	cleanup()

	job, err := svc.GetBatch(context.Background(), reply.ID)
	if err != nil {
		t.Fatal(err)
	}
	if job.State != service.JobFinished {
		t.Errorf("job state after cleanup = %s, want finished", job.State)
	}
}

// Package bootstrap 根据配置组装分析器，供 server 和命令行共用。
package bootstrap

import (
	"context"
	"fmt"

	"github.com/iWorld-y/propai/internal/analyzer"
	"github.com/iWorld-y/propai/internal/backend"
	"github.com/iWorld-y/propai/internal/backend/einomodel"
	"github.com/iWorld-y/propai/internal/backend/gemini"
	"github.com/iWorld-y/propai/internal/config"
	"github.com/iWorld-y/propai/internal/geo"
	"github.com/iWorld-y/propai/internal/logger"
	"github.com/iWorld-y/propai/internal/request"
	"github.com/iWorld-y/propai/internal/search/factory"
)

// NewGenerator 按 llm.provider 创建后端
func NewGenerator(ctx context.Context, cfg *config.Config) (backend.Generator, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		return gemini.NewClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	case config.ProviderOpenAI:
		searcher, err := factory.NewSearcher(&cfg.Search)
		if err != nil {
			return nil, err
		}
		if searcher == nil {
			logger.Log.Warn("未配置搜索服务，分析请求将不带网页检索结果")
		}
		return einomodel.NewClient(ctx, einomodel.Config{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
		}, searcher)
	}
	return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
}

// NewAnalyzer 组装后端、定位、请求构造器和限流器
func NewAnalyzer(ctx context.Context, cfg *config.Config) (*analyzer.Analyzer, error) {
	gen, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init llm backend failed: %w", err)
	}
	locator, err := geo.New(cfg.Geo.Provider, cfg.Geo.Latitude, cfg.Geo.Longitude, cfg.Geo.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("init geo locator failed: %w", err)
	}
	builder := &request.Builder{
		Locator:     locator,
		Timeout:     cfg.Geo.Timeout,
		Temperature: cfg.LLM.Temperature,
	}

	limiter := analyzer.NewLimiter(cfg.Concurrency.RPM, cfg.Concurrency.QPS)
	logger.Log.Infof("分析器已配置: provider=%s, model=%s, Limit=%.2f req/s, Burst=%d",
		cfg.LLM.Provider, cfg.LLM.Model, float64(limiter.Limit()), limiter.Burst())
	return analyzer.New(gen, builder, limiter), nil
}

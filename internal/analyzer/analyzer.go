// Package analyzer 串联请求构造、后端调用和响应解析，提供单次分析与客户匹配。
package analyzer

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/propai/internal/backend"
	"github.com/iWorld-y/propai/internal/extract"
	"github.com/iWorld-y/propai/internal/logger"
	"github.com/iWorld-y/propai/internal/model"
	"github.com/iWorld-y/propai/internal/request"
)

// Analyzer 单次分析/匹配处理器。此层不做重试。
type Analyzer struct {
	gen     backend.Generator
	builder *request.Builder
	limiter *rate.Limiter
}

// New 创建 Analyzer，limiter 为空时不限流
func New(gen backend.Generator, builder *request.Builder, limiter *rate.Limiter) *Analyzer {
	if builder == nil {
		builder = &request.Builder{}
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Analyzer{gen: gen, builder: builder, limiter: limiter}
}

// NewLimiter 按每分钟请求数和突发数创建限流器，rpm <= 0 表示不限
func NewLimiter(rpm, qps int) *rate.Limiter {
	if qps <= 0 {
		qps = 1
	}
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, qps)
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), qps)
}

// Analyze 分析单个房产
func (a *Analyzer) Analyze(ctx context.Context, in model.PropertyInput) (*model.AnalysisResult, error) {
	req := a.builder.Analysis(ctx, in)

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := a.gen.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("analyze property failed: %w", err)
	}

	result, err := extract.ParseAnalysis(resp)
	if err != nil {
		logger.Log.Errorf("解析分析结果失败 [%s]: %v", in.Address, err)
		return nil, fmt.Errorf("analyze property failed: %w", err)
	}
	if err := result.Validate(); err != nil {
		logger.Log.Warnf("分析结果超出约束 [%s]: %v", in.Address, err)
	}
	logger.Log.Infof("分析完成 [%s]: 评分 %d, 引用 %d 条", in.Address, result.InvestmentScore, len(result.GroundingLinks))
	return result, nil
}

// Match 计算客户与房产的匹配度
func (a *Analyzer) Match(ctx context.Context, property model.PropertyInput, analysis *model.AnalysisResult, customer model.CustomerProfile) (*model.MatchResult, error) {
	req, err := a.builder.Match(property, analysis, customer)
	if err != nil {
		return nil, err
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := a.gen.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("match customer failed: %w", err)
	}

	result, err := extract.ParseMatch(resp)
	if err != nil {
		logger.Log.Errorf("解析匹配结果失败 [%s]: %v", property.Address, err)
		return nil, fmt.Errorf("match customer failed: %w", err)
	}
	if err := result.Validate(); err != nil {
		logger.Log.Warnf("匹配结果超出约束 [%s]: %v", property.Address, err)
	}
	return result, nil
}

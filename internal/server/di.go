package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/propai/internal/analyzer"
	"github.com/iWorld-y/propai/internal/batch"
	"github.com/iWorld-y/propai/internal/bootstrap"
	"github.com/iWorld-y/propai/internal/config"
	"github.com/iWorld-y/propai/internal/logger"
	"github.com/iWorld-y/propai/internal/service"
	"github.com/iWorld-y/propai/internal/storage"
)

// ProviderSet 是 PropAI 服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,

	// Data providers
	NewStore,
	NewPacer,

	// Analyzer providers
	bootstrap.NewAnalyzer,
	wire.Bind(new(service.Analyzer), new(*analyzer.Analyzer)),

	// Service providers
	service.NewJobManager,
	service.NewPropAIService,
)

// NewPacer 批量处理的请求间隔
func NewPacer(c *config.BatchConfig) batch.Pacer {
	return batch.NewFixedPacer(c.Pacing)
}

// NewStore 未配置数据库或连接失败时返回空 Store，服务仅保留内存中的任务
func NewStore(c *config.DBConfig) (service.Store, func(), error) {
	if c.Host == "" {
		logger.Log.Info("未配置数据库信息，跳过数据库连接")
		return nil, func() {}, nil
	}
	s, err := storage.NewStorage(*c)
	if err != nil {
		logger.Log.Errorf("无法连接数据库: %v. 批量任务将不会持久化。", err)
		return nil, func() {}, nil
	}
	logger.Log.Info("已成功连接到数据库")
	return s, func() {
		if err := s.Close(); err != nil {
			logger.Log.Errorf("关闭数据库连接失败: %v", err)
		}
	}, nil
}

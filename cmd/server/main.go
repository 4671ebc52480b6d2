package main

import (
	"context"
	"flag"
	"os"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/propai/internal/config"
	"github.com/iWorld-y/propai/internal/logger"
	"github.com/iWorld-y/propai/internal/service"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 是服务的名称
	Name string = "propai"
	// Version 是服务的版本号
	Version string
	// flagconf 是配置文件的路径命令行参数
	flagconf string

	id, _ = os.Hostname()
)

// 已结束任务的清理周期
const sweepSpec = "@every 10m"

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		panic(err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		panic(err)
	}

	// 初始化日志记录器，包含时间戳、调用者信息、服务ID等上下文
	klog := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	app, cleanup, err := initApp(context.Background(), cfg, &cfg.Server, &cfg.Batch, &cfg.DB, klog)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		panic(err)
	}
}

func newApp(logger log.Logger, hs *http.Server, s *service.PropAIService, jobs *service.JobManager, c *config.ServerConfig) (*kratos.App, func(), error) {
	h := log.NewHelper(logger)
	sweeper, err := jobs.StartSweeper(sweepSpec, c.JobTTL, func(n int) {
		h.Infof("已清理 %d 个过期批量任务", n)
	})
	if err != nil {
		return nil, nil, err
	}
	app := kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs),
	)
	// 先结束批量任务，再由后续 cleanup 关闭数据库
	return app, func() {
		sweeper.Stop()
		s.Close()
	}, nil
}

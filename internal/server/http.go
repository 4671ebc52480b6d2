package server

import (
	"context"
	"fmt"
	nethttp "net/http"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/propai/internal/auth"
	"github.com/iWorld-y/propai/internal/config"
	"github.com/iWorld-y/propai/internal/model"
	"github.com/iWorld-y/propai/internal/service"
)

// maxUploadSize 上传表格的大小上限
const maxUploadSize = 32 << 20

func NewHTTPServer(c *config.ServerConfig, s *service.PropAIService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Addr != "" {
		opts = append(opts, http.Address(c.Addr))
	}
	if c.Timeout > 0 {
		opts = append(opts, http.Timeout(c.Timeout))
	}
	if c.JWTKey != "" {
		opts = append(opts, http.Filter(authFilter(c.JWTKey)))
	}

	srv := http.NewServer(opts...)
	registerRoutes(srv, s)
	log.NewHelper(logger).Infof("HTTP 服务监听 %s", c.Addr)
	return srv
}

// authFilter 校验 /api/ 下请求的 Bearer 令牌，健康检查不受影响
func authFilter(key string) http.FilterFunc {
	return func(next nethttp.Handler) nethttp.Handler {
		return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}
			raw, ok := auth.FromHeader(r.Header.Get("Authorization"))
			if ok {
				if _, err := auth.Verify(key, raw); err == nil {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.DefaultErrorEncoder(w, r, errors.Unauthorized("UNAUTHORIZED", "missing or invalid bearer token"))
		})
	}
}

func registerRoutes(srv *http.Server, s *service.PropAIService) {
	srv.HandleFunc("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r := srv.Route("/api/v1")
	r.POST("/analyze", analyzeHandler(s))
	r.POST("/match", matchHandler(s))
	r.POST("/batches", createBatchHandler(s))
	r.GET("/batches/{id}", getBatchHandler(s))
	r.POST("/batches/{id}/resume", resumeBatchHandler(s))
	r.GET("/batches/{id}/export", exportBatchHandler(s))
}

func analyzeHandler(s *service.PropAIService) http.HandlerFunc {
	return func(ctx http.Context) error {
		var in model.PropertyInput
		if err := ctx.Bind(&in); err != nil {
			return errors.BadRequest("INVALID_PROPERTY", err.Error())
		}
		http.SetOperation(ctx, "/api/v1/analyze")
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.Analyze(ctx, req.(*model.PropertyInput))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func matchHandler(s *service.PropAIService) http.HandlerFunc {
	return func(ctx http.Context) error {
		var in service.MatchRequest
		if err := ctx.Bind(&in); err != nil {
			return errors.BadRequest("INVALID_MATCH", err.Error())
		}
		http.SetOperation(ctx, "/api/v1/match")
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.Match(ctx, req.(*service.MatchRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func createBatchHandler(s *service.PropAIService) http.HandlerFunc {
	return func(ctx http.Context) error {
		req := ctx.Request()
		if err := req.ParseMultipartForm(maxUploadSize); err != nil {
			return errors.BadRequest("INVALID_UPLOAD", err.Error())
		}
		file, header, err := req.FormFile("file")
		if err != nil {
			return errors.BadRequest("INVALID_UPLOAD", "multipart field \"file\" is required")
		}
		defer file.Close()

		out, err := s.CreateBatch(ctx, header.Filename, file)
		if err != nil {
			return err
		}
		return ctx.Result(202, out)
	}
}

func getBatchHandler(s *service.PropAIService) http.HandlerFunc {
	return func(ctx http.Context) error {
		out, err := s.GetBatch(ctx, ctx.Vars().Get("id"))
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func resumeBatchHandler(s *service.PropAIService) http.HandlerFunc {
	return func(ctx http.Context) error {
		out, err := s.ResumeBatch(ctx, ctx.Vars().Get("id"))
		if err != nil {
			return err
		}
		return ctx.Result(202, out)
	}
}

func exportBatchHandler(s *service.PropAIService) http.HandlerFunc {
	return func(ctx http.Context) error {
		out, err := s.ExportBatch(ctx, ctx.Vars().Get("id"), ctx.Query().Get("format"))
		if err != nil {
			return err
		}
		ctx.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
		return ctx.Blob(200, out.ContentType, out.Data)
	}
}

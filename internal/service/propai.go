// Package service 实现 HTTP 接口背后的用例：单次分析、客户匹配和批量任务。
package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/propai/internal/batch"
	"github.com/iWorld-y/propai/internal/extract"
	"github.com/iWorld-y/propai/internal/model"
	"github.com/iWorld-y/propai/internal/sheet"
)

// Analyzer 分析能力
type Analyzer interface {
	Analyze(ctx context.Context, in model.PropertyInput) (*model.AnalysisResult, error)
	Match(ctx context.Context, property model.PropertyInput, analysis *model.AnalysisResult, customer model.CustomerProfile) (*model.MatchResult, error)
}

// Store 持久化，可为空
type Store interface {
	CreateRun(ctx context.Context, runID, filename string, rows []batch.Row) error
	SaveRow(ctx context.Context, runID string, row batch.Row) error
	FinishRun(ctx context.Context, runID string, sum batch.Summary) error
	LoadRows(ctx context.Context, runID string) ([]batch.Row, error)
	SaveAnalysis(ctx context.Context, in model.PropertyInput, result *model.AnalysisResult) (int, error)
}

// MatchRequest 匹配请求体
type MatchRequest struct {
	Property model.PropertyInput   `json:"property"`
	Analysis *model.AnalysisResult `json:"analysis"`
	Customer model.CustomerProfile `json:"customer"`
}

// BatchReply 创建批量任务的响应
type BatchReply struct {
	ID    string `json:"id"`
	Total int    `json:"total"`
}

// Export 导出文件
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PropAIService struct {
	analyzer Analyzer
	pacer    batch.Pacer
	jobs     *JobManager
	store    Store

	// 同一时间只运行一个批量任务，避免并发请求后端
	runMu sync.Mutex
	wg    sync.WaitGroup

	// 批量任务的生命周期，Close 时取消
	ctx    context.Context
	cancel context.CancelFunc

	log *log.Helper
}

func NewPropAIService(analyzer Analyzer, pacer batch.Pacer, jobs *JobManager, store Store, logger log.Logger) *PropAIService {
	ctx, cancel := context.WithCancel(context.Background())
	return &PropAIService{
		analyzer: analyzer,
		pacer:    pacer,
		jobs:     jobs,
		store:    store,
		ctx:      ctx,
		cancel:   cancel,
		log:      log.NewHelper(logger),
	}
}

// Analyze 单次分析
func (s *PropAIService) Analyze(ctx context.Context, in *model.PropertyInput) (*model.AnalysisResult, error) {
	if in == nil {
		return nil, kerrors.BadRequest("INVALID_PROPERTY", "property is required")
	}
	if in.Price < 0 || in.Area < 0 {
		return nil, kerrors.BadRequest("INVALID_PROPERTY", "price and area must not be negative")
	}
	result, err := s.analyzer.Analyze(ctx, *in)
	if err != nil {
		return nil, toKratos(err)
	}
	if s.store != nil {
		if _, err := s.store.SaveAnalysis(ctx, *in, result); err != nil {
			s.log.Errorf("保存分析结果失败: %v", err)
		}
	}
	return result, nil
}

// Match 客户匹配
func (s *PropAIService) Match(ctx context.Context, req *MatchRequest) (*model.MatchResult, error) {
	if req == nil || req.Analysis == nil {
		return nil, kerrors.BadRequest("INVALID_MATCH", "analysis is required")
	}
	if req.Customer.RiskTolerance != "" && !req.Customer.RiskTolerance.Valid() {
		return nil, kerrors.BadRequest("INVALID_MATCH", "riskTolerance must be Low, Medium or High")
	}
	result, err := s.analyzer.Match(ctx, req.Property, req.Analysis, req.Customer)
	if err != nil {
		return nil, toKratos(err)
	}
	return result, nil
}

// CreateBatch 导入表格并在后台开始处理
func (s *PropAIService) CreateBatch(ctx context.Context, filename string, r io.Reader) (*BatchReply, error) {
	sh, err := sheet.Read(filename, r)
	if err != nil {
		return nil, kerrors.BadRequest("INVALID_SHEET", err.Error())
	}
	if len(sh.Records) == 0 {
		return nil, kerrors.BadRequest("EMPTY_SHEET", "sheet has no data rows")
	}

	rows := batch.NewRows(sh.Records)
	id := s.jobs.Create(filename, rows)
	if s.store != nil {
		if err := s.store.CreateRun(ctx, id, filename, rows); err != nil {
			s.log.Errorf("创建批量任务记录失败 [%s]: %v", id, err)
		}
	}
	s.log.Infof("批量任务已创建 [%s]: %s, %d 行", id, filename, len(rows))

	s.start(id, rows)
	return &BatchReply{ID: id, Total: len(rows)}, nil
}

// GetBatch 查询任务
func (s *PropAIService) GetBatch(ctx context.Context, id string) (*Job, error) {
	j, ok := s.jobs.Get(id)
	if !ok {
		return nil, kerrors.NotFound("BATCH_NOT_FOUND", "batch not found: "+id)
	}
	return &j, nil
}

// ResumeBatch 重新处理未完成的行。内存中没有该任务时从数据库恢复。
func (s *PropAIService) ResumeBatch(ctx context.Context, id string) (*BatchReply, error) {
	if _, ok := s.jobs.Get(id); !ok {
		if err := s.restore(ctx, id); err != nil {
			return nil, err
		}
	}
	rows, ok := s.jobs.Queue(id)
	if !ok {
		return nil, kerrors.Conflict("BATCH_RUNNING", "batch is still running: "+id)
	}
	s.start(id, batch.ResetFailed(rows))
	return &BatchReply{ID: id, Total: len(rows)}, nil
}

func (s *PropAIService) restore(ctx context.Context, id string) error {
	if s.store == nil {
		return kerrors.NotFound("BATCH_NOT_FOUND", "batch not found: "+id)
	}
	rows, err := s.store.LoadRows(ctx, id)
	if err != nil {
		return kerrors.InternalServer("STORAGE_ERROR", err.Error())
	}
	if len(rows) == 0 {
		return kerrors.NotFound("BATCH_NOT_FOUND", "batch not found: "+id)
	}
	s.jobs.put(id, "", rows)
	s.jobs.Finish(id, rows)
	return nil
}

// ExportBatch 导出任务结果，format 为 csv 时导出 CSV，其余导出 xlsx
func (s *PropAIService) ExportBatch(ctx context.Context, id, format string) (*Export, error) {
	j, ok := s.jobs.Get(id)
	if !ok {
		return nil, kerrors.NotFound("BATCH_NOT_FOUND", "batch not found: "+id)
	}
	records := batch.Export(j.Rows)

	var buf bytes.Buffer
	if format == "csv" {
		if err := sheet.WriteCSV(&buf, records); err != nil {
			return nil, kerrors.InternalServer("EXPORT_FAILED", err.Error())
		}
		return &Export{Filename: "PropAI_Bulk_Result_" + id + ".csv", ContentType: "text/csv; charset=utf-8", Data: buf.Bytes()}, nil
	}
	if err := sheet.WriteXLSX(&buf, sheet.ExportSheetName, records); err != nil {
		return nil, kerrors.InternalServer("EXPORT_FAILED", err.Error())
	}
	return &Export{Filename: "PropAI_Bulk_Result_" + id + ".xlsx", ContentType: xlsxContentType, Data: buf.Bytes()}, nil
}

// Wait 等待所有后台任务结束
func (s *PropAIService) Wait() {
	s.wg.Wait()
}

// Close 取消正在执行的批量任务并等待其写完状态。未处理的行记为失败，可通过恢复接口重试。
func (s *PropAIService) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *PropAIService) start(id string, rows []batch.Row) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(id, rows)
	}()
}

func (s *PropAIService) run(id string, rows []batch.Row) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	// 批量任务与请求的生命周期无关
	ctx := s.ctx
	p := &batch.Processor{
		Analyzer: s.analyzer,
		Pacer:    s.pacer,
		OnUpdate: func(u batch.Update) {
			s.jobs.Update(id, u)
			if s.store == nil || u.Index < 0 {
				return
			}
			row := u.Rows[u.Index]
			// 写入 processing 状态，中断后恢复时会被重置
			if err := s.store.SaveRow(context.WithoutCancel(ctx), id, row); err != nil {
				s.log.Errorf("保存批量行失败 [%s#%d]: %v", id, row.ID, err)
			}
		},
	}

	out := p.Run(ctx, rows)
	s.jobs.Finish(id, out)
	sum := batch.Summarize(out)
	if s.store != nil {
		if err := s.store.FinishRun(context.WithoutCancel(ctx), id, sum); err != nil {
			s.log.Errorf("更新批量任务失败 [%s]: %v", id, err)
		}
	}
	s.log.Infof("批量任务结束 [%s]: 成功 %d, 失败 %d, 平均评分 %.1f", id, sum.Completed, sum.Failed, sum.AverageScore)
}

func toKratos(err error) error {
	if errors.Is(err, extract.ErrMalformedResponse) {
		return kerrors.New(502, "MALFORMED_RESPONSE", err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return kerrors.GatewayTimeout("BACKEND_TIMEOUT", err.Error())
	}
	return kerrors.ServiceUnavailable("BACKEND_UNAVAILABLE", err.Error())
}

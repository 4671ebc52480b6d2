// Package batch 顺序处理批量导入的房产行，维护每行状态并生成导出结果。
package batch

import (
	"context"
	"math"
	"time"

	"github.com/iWorld-y/propai/internal/logger"
	"github.com/iWorld-y/propai/internal/model"
	"github.com/iWorld-y/propai/internal/rowmap"
	"github.com/iWorld-y/propai/internal/sheet"
)

// DefaultErrorMessage 失败原因为空时记录的信息
const DefaultErrorMessage = "Lỗi phân tích"

// MinPacing 相邻两次请求之间的最小间隔
const MinPacing = time.Second

// Row 批量中的一行
type Row struct {
	ID     int                   `json:"id"`
	Record sheet.Record          `json:"record"`
	Status Status                `json:"status"`
	Result *model.AnalysisResult `json:"result,omitempty"`
	Err    string                `json:"error,omitempty"`
}

func (r Row) clone() Row {
	r.Record = r.Record.Clone()
	return r
}

// apply 应用状态迁移
func (r *Row) apply(e Event) error {
	next, err := Transition(r.Status, e)
	if err != nil {
		return err
	}
	r.Status = next
	return nil
}

// NewRows 将导入的记录初始化为 pending 行
func NewRows(records []sheet.Record) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = Row{ID: i, Record: rec, Status: StatusPending}
	}
	return rows
}

// Progress 总体进度
type Progress struct {
	Done    int `json:"done"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// NewProgress 按已结束行数计算进度，百分比四舍五入
func NewProgress(done, total int) Progress {
	p := Progress{Done: done, Total: total}
	if total > 0 {
		p.Percent = int(math.Round(float64(done) / float64(total) * 100))
	}
	return p
}

// Update 推送给调用方的快照，Index 为本次变化的行
type Update struct {
	Index    int
	Rows     []Row
	Progress Progress
}

// Analyzer 单行分析
type Analyzer interface {
	Analyze(ctx context.Context, in model.PropertyInput) (*model.AnalysisResult, error)
}

// Pacer 发起请求前的等待
type Pacer interface {
	Wait(ctx context.Context) error
}

// PacerFunc 函数适配
type PacerFunc func(ctx context.Context) error

func (f PacerFunc) Wait(ctx context.Context) error { return f(ctx) }

// FixedPacer 固定间隔，不低于 MinPacing
type FixedPacer time.Duration

// NewFixedPacer 创建固定间隔等待器
func NewFixedPacer(d time.Duration) FixedPacer {
	if d < MinPacing {
		d = MinPacing
	}
	return FixedPacer(d)
}

func (p FixedPacer) Wait(ctx context.Context) error {
	t := time.NewTimer(time.Duration(p))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Processor 批量处理器。行严格按文件顺序逐个处理，单行失败不会中止整个批次。
type Processor struct {
	Analyzer Analyzer
	Pacer    Pacer        // 为空时使用 MinPacing
	OnUpdate func(Update) // 可选，收到的是副本
}

// Run 处理所有未完成的行并返回行的副本。已完成的行被跳过但计入进度。
func (p *Processor) Run(ctx context.Context, rows []Row) []Row {
	pacer := p.Pacer
	if pacer == nil {
		pacer = NewFixedPacer(MinPacing)
	}

	work := snapshot(rows)
	total := len(work)
	done := 0
	published := false

	logger.Log.Infof("开始批量分析，共 %d 行", total)
	for i := range work {
		row := &work[i]
		if row.Status == StatusCompleted {
			done++
			continue
		}
		if row.Status == StatusProcessing {
			// 上次运行中断留下的行
			_ = row.apply(EventReset)
		}
		if err := row.apply(EventStart); err != nil {
			logger.Log.Errorf("第 %d 行状态异常: %v", row.ID, err)
			continue
		}
		row.Err = ""
		p.publish(i, work, NewProgress(done, total))

		result, err := p.process(ctx, pacer, row.Record)
		if err != nil {
			msg := err.Error()
			if msg == "" {
				msg = DefaultErrorMessage
			}
			row.Result = nil
			row.Err = msg
			_ = row.apply(EventFail)
			logger.Log.Warnf("第 %d 行分析失败: %v", row.ID, msg)
		} else {
			row.Result = result
			_ = row.apply(EventSucceed)
		}

		done++
		p.publish(i, work, NewProgress(done, total))
		published = true
	}

	if !published && total > 0 {
		p.publish(-1, work, NewProgress(done, total))
	}
	s := Summarize(work)
	logger.Log.Infof("批量分析结束: 成功 %d, 失败 %d, 共 %d", s.Completed, s.Failed, s.Total)
	return work
}

func (p *Processor) process(ctx context.Context, pacer Pacer, rec sheet.Record) (*model.AnalysisResult, error) {
	if err := pacer.Wait(ctx); err != nil {
		return nil, err
	}
	return p.Analyzer.Analyze(ctx, rowmap.Map(rec))
}

func (p *Processor) publish(index int, rows []Row, progress Progress) {
	if p.OnUpdate == nil {
		return
	}
	p.OnUpdate(Update{Index: index, Rows: snapshot(rows), Progress: progress})
}

func snapshot(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.clone()
	}
	return out
}

// ResetFailed 返回将失败行重置为 pending 的副本
func ResetFailed(rows []Row) []Row {
	out := snapshot(rows)
	for i := range out {
		if out[i].Status == StatusError {
			_ = out[i].apply(EventReset)
			out[i].Err = ""
		}
	}
	return out
}

// Summary 批次统计
type Summary struct {
	Total        int     `json:"total"`
	Completed    int     `json:"completed"`
	Failed       int     `json:"failed"`
	Pending      int     `json:"pending"`
	AverageScore float64 `json:"averageScore"`
}

// Summarize 统计各状态行数和成功行的平均评分
func Summarize(rows []Row) Summary {
	s := Summary{Total: len(rows)}
	scored, sum := 0, 0
	for _, r := range rows {
		switch r.Status {
		case StatusCompleted:
			s.Completed++
			if r.Result != nil {
				scored++
				sum += r.Result.InvestmentScore
			}
		case StatusError:
			s.Failed++
		default:
			s.Pending++
		}
	}
	if scored > 0 {
		s.AverageScore = float64(sum) / float64(scored)
	}
	return s
}

package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/iWorld-y/propai/internal/batch"
)

// JobState 批量任务状态
type JobState string

const (
	JobQueued   JobState = "queued"
	JobRunning  JobState = "running"
	JobFinished JobState = "finished"
)

// Job 批量任务快照
type Job struct {
	ID         string         `json:"id"`
	Filename   string         `json:"filename"`
	State      JobState       `json:"state"`
	Progress   batch.Progress `json:"progress"`
	Summary    batch.Summary  `json:"summary"`
	Rows       []batch.Row    `json:"rows"`
	CreatedAt  time.Time      `json:"createdAt"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
}

// JobManager 内存中的批量任务表
type JobManager struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

// NewJobManager 创建任务表
func NewJobManager() *JobManager {
	return &JobManager{jobs: make(map[string]*Job), now: time.Now}
}

// Create 登记新任务，返回任务 ID
func (m *JobManager) Create(filename string, rows []batch.Row) string {
	return m.put(uuid.NewString(), filename, rows)
}

func (m *JobManager) put(id, filename string, rows []batch.Row) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[id] = &Job{
		ID:        id,
		Filename:  filename,
		State:     JobQueued,
		Rows:      rows,
		Summary:   batch.Summarize(rows),
		Progress:  batch.Progress{Total: len(rows)},
		CreatedAt: m.now(),
	}
	return id
}

// Get 返回任务的副本
func (m *JobManager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	out := *j
	out.Rows = append([]batch.Row(nil), j.Rows...)
	return out, true
}

// Queue 将已结束的任务重新排队，任务不存在或仍在执行时返回 false
func (m *JobManager) Queue(id string) ([]batch.Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.State != JobFinished {
		return nil, false
	}
	j.State = JobQueued
	j.FinishedAt = nil
	return append([]batch.Row(nil), j.Rows...), true
}

// Update 应用处理器推送的快照
func (m *JobManager) Update(id string, u batch.Update) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.State = JobRunning
		j.Rows = u.Rows
		j.Progress = u.Progress
		j.Summary = batch.Summarize(u.Rows)
	}
}

// Finish 记录最终结果
func (m *JobManager) Finish(id string, rows []batch.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		now := m.now()
		j.State = JobFinished
		j.Rows = rows
		j.Summary = batch.Summarize(rows)
		j.Progress = batch.NewProgress(j.Summary.Completed+j.Summary.Failed, len(rows))
		j.FinishedAt = &now
	}
}

// Sweep 清理结束超过 ttl 的任务
func (m *JobManager) Sweep(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-ttl)
	n := 0
	for id, j := range m.jobs {
		if j.State == JobFinished && j.FinishedAt != nil && j.FinishedAt.Before(cutoff) {
			delete(m.jobs, id)
			n++
		}
	}
	return n
}

// StartSweeper 定期清理已结束的任务，调用方负责 Stop
func (m *JobManager) StartSweeper(spec string, ttl time.Duration, onSweep func(n int)) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := m.Sweep(ttl); n > 0 && onSweep != nil {
			onSweep(n)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

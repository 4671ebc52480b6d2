// Package storage 将批量任务和单次分析结果持久化到 PostgreSQL。
package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "github.com/lib/pq"

	"github.com/iWorld-y/propai/internal/batch"
	"github.com/iWorld-y/propai/internal/config"
	"github.com/iWorld-y/propai/internal/model"
	"github.com/iWorld-y/propai/internal/sheet"
)

type Storage struct {
	db *sql.DB
}

func NewStorage(cfg config.DBConfig) (*Storage, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS batch_runs (
			id TEXT PRIMARY KEY,
			filename TEXT,
			total INTEGER NOT NULL,
			completed INTEGER DEFAULT 0,
			failed INTEGER DEFAULT 0,
			average_score DOUBLE PRECISION DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			finished_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS batch_rows (
			run_id TEXT REFERENCES batch_runs(id) ON DELETE CASCADE,
			row_id INTEGER NOT NULL,
			record JSONB NOT NULL,
			status TEXT NOT NULL,
			result JSONB,
			error TEXT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, row_id)
		)`,
		`CREATE TABLE IF NOT EXISTS analyses (
			id SERIAL PRIMARY KEY,
			address TEXT,
			input JSONB NOT NULL,
			result JSONB NOT NULL,
			investment_score INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}
	return nil
}

// CreateRun 创建批量任务记录，并在同一事务中写入所有初始行
func (s *Storage) CreateRun(ctx context.Context, runID, filename string, rows []batch.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO batch_runs (id, filename, total)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		runID, cleanText(filename), len(rows))
	if err != nil {
		return fmt.Errorf("failed to insert batch run: %w", err)
	}
	for _, row := range rows {
		if err := upsertRow(ctx, tx, runID, row); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch run: %w", err)
	}
	return nil
}

// SaveRow 写入或更新一行的状态
func (s *Storage) SaveRow(ctx context.Context, runID string, row batch.Row) error {
	return upsertRow(ctx, s.db, runID, row)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertRow(ctx context.Context, db execer, runID string, row batch.Row) error {
	record, err := marshalJSONB(row.Record)
	if err != nil {
		return err
	}
	var result []byte
	if row.Result != nil {
		if result, err = marshalJSONB(row.Result); err != nil {
			return err
		}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO batch_rows (run_id, row_id, record, status, result, error)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id, row_id) DO UPDATE
		SET status = EXCLUDED.status, result = EXCLUDED.result, error = EXCLUDED.error,
			updated_at = CURRENT_TIMESTAMP`,
		runID, row.ID, record, string(row.Status), nullBytes(result), cleanText(row.Err))
	if err != nil {
		return fmt.Errorf("failed to upsert batch row %d: %w", row.ID, err)
	}
	return nil
}

// FinishRun 记录批量任务的统计
func (s *Storage) FinishRun(ctx context.Context, runID string, sum batch.Summary) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE batch_runs
		SET completed = $2, failed = $3, average_score = $4, finished_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		runID, sum.Completed, sum.Failed, sum.AverageScore)
	if err != nil {
		return fmt.Errorf("failed to update batch run: %w", err)
	}
	return nil
}

// LoadRows 读取批量任务的所有行，按行号排序
func (s *Storage) LoadRows(ctx context.Context, runID string) ([]batch.Row, error) {
	rs, err := s.db.QueryContext(ctx, `
		SELECT row_id, record, status, result, COALESCE(error, '')
		FROM batch_rows WHERE run_id = $1 ORDER BY row_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch rows: %w", err)
	}
	defer rs.Close()

	var rows []batch.Row
	for rs.Next() {
		var (
			row            batch.Row
			record, result []byte
			status         string
		)
		if err := rs.Scan(&row.ID, &record, &status, &result, &row.Err); err != nil {
			return nil, fmt.Errorf("failed to scan batch row: %w", err)
		}
		row.Status = batch.Status(status)
		var rec sheet.Record
		if err := json.Unmarshal(record, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record of row %d: %w", row.ID, err)
		}
		row.Record = rec
		if len(result) > 0 {
			row.Result = &model.AnalysisResult{}
			if err := json.Unmarshal(result, row.Result); err != nil {
				return nil, fmt.Errorf("failed to decode result of row %d: %w", row.ID, err)
			}
		}
		rows = append(rows, row)
	}
	return rows, rs.Err()
}

// SaveAnalysis 保存单次分析
func (s *Storage) SaveAnalysis(ctx context.Context, in model.PropertyInput, result *model.AnalysisResult) (int, error) {
	// 图片只在请求时使用，不入库
	in.Images = nil
	input, err := marshalJSONB(in)
	if err != nil {
		return 0, err
	}
	res, err := marshalJSONB(result)
	if err != nil {
		return 0, err
	}

	var id int
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO analyses (address, input, result, investment_score)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		cleanText(in.Address), input, res, result.InvestmentScore).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis: %w", err)
	}
	return id, nil
}

func marshalJSONB(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb failed: %w", err)
	}
	// PostgreSQL jsonb 不支持 \u0000
	return bytes.ReplaceAll(b, []byte(`\u0000`), nil), nil
}

func nullBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

// cleanText 移除无效的 UTF-8 和 NULL 字符，PostgreSQL 文本字段不支持 NULL 字节
func cleanText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return removeNullBytes(s)
}

func removeNullBytes(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

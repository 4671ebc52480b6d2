package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportSheetName 导出文件的工作表名
const ExportSheetName = "AI Analysis Results"

// Sheet 导入的表格：表头 + 数据行
type Sheet struct {
	Name    string
	Headers []string
	Records []Record
}

// Read 根据文件扩展名读取 xlsx 或 csv
func Read(filename string, r io.Reader) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	case ".csv":
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet format: %q", filepath.Ext(filename))
	}
}

// ReadXLSX 读取第一个工作表，首行为表头
func ReadXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx failed: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no worksheet")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows failed: %w", err)
	}
	s := fromRows(rows)
	s.Name = sheets[0]
	return s, nil
}

// ReadCSV 读取 csv，首行为表头
func ReadCSV(r io.Reader) (*Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv failed: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\uFEFF")
	}
	return fromRows(rows), nil
}

// fromRows 将二维表转换为记录。空单元格不进入记录，全空行被跳过。
func fromRows(rows [][]string) *Sheet {
	s := &Sheet{}
	if len(rows) == 0 {
		return s
	}
	s.Headers = uniqueHeaders(rows[0])
	for _, row := range rows[1:] {
		var rec Record
		for i, v := range row {
			if i >= len(s.Headers) || strings.TrimSpace(v) == "" {
				continue
			}
			rec = append(rec, Cell{Header: s.Headers[i], Value: v})
		}
		if len(rec) == 0 {
			continue
		}
		s.Records = append(s.Records, rec)
	}
	return s
}

// uniqueHeaders 处理空表头和重复表头
func uniqueHeaders(raw []string) []string {
	seen := make(map[string]int)
	out := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "__EMPTY"
		}
		name := h
		if n, ok := seen[h]; ok {
			name = fmt.Sprintf("%s_%d", h, n)
		}
		seen[h]++
		out[i] = name
	}
	return out
}

// WriteXLSX 写出单个工作表，表头为所有行列名的并集
func WriteXLSX(w io.Writer, sheetName string, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = ExportSheetName
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet failed: %w", err)
	}

	for i, row := range table(records) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d failed: %w", i+1, err)
		}
	}
	return f.Write(w)
}

// WriteCSV 写出 csv
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	for _, row := range table(records) {
		line := make([]string, len(row))
		for i, v := range row {
			if v != nil {
				line[i] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func table(records []Record) [][]any {
	headers := Headers(records)
	out := make([][]any, 0, len(records)+1)
	head := make([]any, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	out = append(out, head)
	for _, r := range records {
		row := make([]any, len(headers))
		for i, h := range headers {
			if v, ok := r.Get(h); ok {
				row[i] = v
			}
		}
		out = append(out, row)
	}
	return out
}

package sheet

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Cell 表格中的一个单元格：列名 + 原始值
type Cell struct {
	Header string
	Value  any
}

// Record 表格的一行，保留列的原始顺序。
// 列名和取值的类型在编译期未知。
type Record []Cell

// Get 按列名精确查找
func (r Record) Get(header string) (any, bool) {
	for _, c := range r {
		if c.Header == header {
			return c.Value, true
		}
	}
	return nil, false
}

// Headers 返回该行的列名
func (r Record) Headers() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Header
	}
	return out
}

// With 返回设置了指定列的新行，原行不变
func (r Record) With(header string, value any) Record {
	out := make(Record, len(r), len(r)+1)
	copy(out, r)
	for i := range out {
		if out[i].Header == header {
			out[i].Value = value
			return out
		}
	}
	return append(out, Cell{Header: header, Value: value})
}

// Clone 复制一行
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	copy(out, r)
	return out
}

// MarshalJSON 按列顺序输出 JSON 对象
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Header)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Headers 汇总多行的列名，按首次出现顺序
func Headers(records []Record) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		for _, c := range r {
			if _, ok := seen[c.Header]; ok {
				continue
			}
			seen[c.Header] = struct{}{}
			out = append(out, c.Header)
		}
	}
	return out
}

// UnmarshalJSON 按对象中键的顺序还原一行
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record must be a json object")
	}
	out := Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected record key %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		out = append(out, Cell{Header: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

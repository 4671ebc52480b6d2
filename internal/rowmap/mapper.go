// Package rowmap 将任意列名的表格行映射为标准的房产输入。
//
// 映射是尽力而为的：列名不明确或缺失时静默使用默认值，不会让整行失败。
package rowmap

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/iWorld-y/propai/internal/model"
	"github.com/iWorld-y/propai/internal/sheet"
)

// DefaultType 未识别到类型列时的默认房产类型
const DefaultType = "Đất nền"

// Field 目标字段
type Field int

const (
	FieldAddress Field = iota
	FieldPrice
	FieldArea
	FieldType
	FieldDescription
	FieldLocationURL
)

// Rule 目标字段及其候选关键词（按顺序）
type Rule struct {
	Field    Field
	Keywords []string
}

// Rules 每个字段独立查找
var Rules = []Rule{
	{FieldAddress, []string{"địa chỉ", "address", "vị trí", "location"}},
	{FieldPrice, []string{"giá", "price", "tiền"}},
	{FieldArea, []string{"diện tích", "area", "m2", "dt"}},
	{FieldType, []string{"loại", "type", "mô hình"}},
	{FieldDescription, []string{"mô tả", "description", "ghi chú", "chi tiết"}},
	{FieldLocationURL, []string{"link", "map", "google", "url"}},
}

// Map 将一行映射为 PropertyInput
func Map(rec sheet.Record) model.PropertyInput {
	in := model.PropertyInput{Type: DefaultType}
	for _, rule := range Rules {
		v, ok := Lookup(rec, rule.Keywords)
		if !ok {
			continue
		}
		switch rule.Field {
		case FieldAddress:
			in.Address = toString(v)
		case FieldPrice:
			in.Price = toNumber(v)
		case FieldArea:
			in.Area = toNumber(v)
		case FieldType:
			in.Type = toString(v)
		case FieldDescription:
			in.Description = toString(v)
		case FieldLocationURL:
			in.LocationURL = toString(v)
		}
	}
	return in
}

// Lookup 按列顺序查找第一个列名（忽略大小写）包含任一关键词的列。
// 命中的列值为空时视为未命中。
func Lookup(rec sheet.Record, keywords []string) (any, bool) {
	for _, c := range rec {
		header := strings.ToLower(norm.NFC.String(c.Header))
		for _, kw := range keywords {
			if !strings.Contains(header, norm.NFC.String(kw)) {
				continue
			}
			if isEmpty(c.Value) {
				return nil, false
			}
			return c.Value, true
		}
	}
	return nil, false
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case float64:
		return x == 0
	case int:
		return x == 0
	}
	return false
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func toNumber(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		return ParseNumber(x)
	}
	return ParseNumber(fmt.Sprint(v))
}

// ParseNumber 清洗带货币符号或千分位的字符串并取开头的数值，无法解析时返回 0。
//
//	"25,5 tỷ"   -> 25.5
//	"1,500,000" -> 1500000
//	"80 m2"     -> 802 (单位里的数字同样被保留)
func ParseNumber(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	cleaned := normalizeComma(b.String())

	// 取开头的数值部分：数字 + 至多一个小数点
	end, dot, digits := 0, false, 0
	for end < len(cleaned) {
		c := cleaned[end]
		if c == '.' {
			if dot {
				break
			}
			dot = true
		} else {
			digits++
		}
		end++
	}
	if digits == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(cleaned[:end], "."), 64)
	if err != nil {
		return 0
	}
	return f
}

// normalizeComma 只有一个逗号、没有小数点且逗号后 1-2 位数字时视为小数逗号，其余逗号视为千分位。
func normalizeComma(s string) string {
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		idx := strings.IndexByte(s, ',')
		if tail := len(s) - idx - 1; tail >= 1 && tail <= 2 {
			return s[:idx] + "." + s[idx+1:]
		}
	}
	return strings.ReplaceAll(s, ",", "")
}

// Package request 将房产输入转换为后端请求。
package request

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/iWorld-y/propai/internal/backend"
	"github.com/iWorld-y/propai/internal/geo"
	"github.com/iWorld-y/propai/internal/logger"
	"github.com/iWorld-y/propai/internal/model"
)

// AnalysisTemperature 分析请求使用较低温度以保证可复现
const AnalysisTemperature = 0.4

// DefaultLocateTimeout 定位的最长等待时间
const DefaultLocateTimeout = 5 * time.Second

// ErrNoImage 图片不是合法的 data URL
var ErrNoImage = errors.New("not a base64 data url")

var dataURLRe = regexp.MustCompile(`(?s)^data:(.+?);base64,(.+)$`)

// Builder 请求构造器
type Builder struct {
	Locator     geo.Locator   // 为空时不带位置
	Timeout     time.Duration // 定位超时，默认 5s
	Temperature float32       // 默认 0.4
}

// Analysis 构造房产分析请求。定位失败不影响请求。
func (b *Builder) Analysis(ctx context.Context, in model.PropertyInput) *backend.Request {
	temp := b.Temperature
	if temp == 0 {
		temp = AnalysisTemperature
	}
	req := &backend.Request{
		SystemInstruction: AnalysisInstruction,
		Prompt:            AnalysisPrompt(in),
		Tools:             []backend.Tool{backend.ToolWebSearch, backend.ToolMaps},
		Temperature:       backend.Float32(temp),
		SearchHint:        strings.TrimSpace(in.Type + " " + in.Address),
	}

	if len(in.Images) > 0 {
		img, err := ParseDataURL(in.Images[0])
		if err != nil {
			logger.Log.Debugf("忽略无法解析的图片: %v", err)
		} else {
			req.Image = img
		}
	}

	if loc, ok := b.locate(ctx); ok {
		req.Location = &backend.LatLng{Latitude: loc.Lat, Longitude: loc.Lng}
	}
	return req
}

func (b *Builder) locate(ctx context.Context) (model.Coordinates, bool) {
	if b.Locator == nil {
		return model.Coordinates{}, false
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultLocateTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		c   model.Coordinates
		err error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := b.Locator.Locate(ctx)
		ch <- result{c, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			logger.Log.Debugf("无法获取位置，请求不带位置偏置: %v", r.err)
			return model.Coordinates{}, false
		}
		return r.c, true
	case <-ctx.Done():
		logger.Log.Debugf("获取位置超时，请求不带位置偏置")
		return model.Coordinates{}, false
	}
}

// AnalysisPrompt 生成用户提示词，只包含有值的字段
func AnalysisPrompt(in model.PropertyInput) string {
	var sb strings.Builder
	sb.WriteString("Phân tích bất động sản sau tại Việt Nam:\n")
	line := func(label, v string) {
		if strings.TrimSpace(v) != "" {
			fmt.Fprintf(&sb, "- %s: %s\n", label, v)
		}
	}
	line("Địa chỉ", in.Address)
	line("Link Google Maps/Vị trí", in.LocationURL)
	line("Loại hình", in.Type)
	if in.Area > 0 {
		line("Diện tích", formatNumber(in.Area)+" m2")
	}
	if in.Price > 0 {
		line("Giá chào bán", formatNumber(in.Price)+" tỷ VND")
	}
	line("Mô tả thêm", in.Description)
	sb.WriteString("\n")
	sb.WriteString(analysisRequirements)
	return sb.String()
}

// ParseDataURL 解析 data:<mime>;base64,<payload>
func ParseDataURL(s string) (*backend.InlineImage, error) {
	m := dataURLRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, ErrNoImage
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	return &backend.InlineImage{MIMEType: m[1], Data: data}, nil
}

// Match 构造客户匹配请求：不声明检索工具，要求直接返回 JSON
func (b *Builder) Match(property model.PropertyInput, analysis *model.AnalysisResult, customer model.CustomerProfile) (*backend.Request, error) {
	if analysis == nil {
		return nil, fmt.Errorf("analysis result is required")
	}
	risks, err := json.Marshal(analysis.ClimateRisks)
	if err != nil {
		return nil, fmt.Errorf("marshal climate risks failed: %w", err)
	}
	market, err := json.Marshal(analysis.MarketAnalysis)
	if err != nil {
		return nil, fmt.Errorf("marshal market analysis failed: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Dữ liệu BĐS:\n")
	fmt.Fprintf(&sb, "- Địa chỉ: %s\n", property.Address)
	fmt.Fprintf(&sb, "- Giá: %s tỷ VND\n", formatNumber(property.Price))
	fmt.Fprintf(&sb, "- Diện tích: %s m2\n", formatNumber(property.Area))
	fmt.Fprintf(&sb, "- Điểm đầu tư (Deal AI): %d\n", analysis.InvestmentScore)
	fmt.Fprintf(&sb, "- Rủi ro khí hậu: %s\n", risks)
	fmt.Fprintf(&sb, "- Công năng: %s\n", strings.Join(analysis.SuggestedFunctions, ", "))
	fmt.Fprintf(&sb, "- Xu hướng thị trường: %s\n", market)
	sb.WriteString("\nDữ liệu Khách hàng:\n")
	fmt.Fprintf(&sb, "- Ngân sách: %s tỷ VND\n", formatNumber(customer.Budget))
	fmt.Fprintf(&sb, "- Mục đích: %s\n", customer.Purpose)
	fmt.Fprintf(&sb, "- Khẩu vị rủi ro: %s\n", customer.RiskTolerance)
	fmt.Fprintf(&sb, "- Phong cách sống: %s\n", customer.Lifestyle)
	sb.WriteString("\n")
	sb.WriteString(matchSchema)

	return &backend.Request{
		SystemInstruction: MatchInstruction,
		Prompt:            sb.String(),
		ResponseMIMEType:  backend.ResponseMIMEJSON,
	}, nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Package extract 从后端原始响应中解析分析结果、匹配结果和引用链接。
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/iWorld-y/propai/internal/backend"
	"github.com/iWorld-y/propai/internal/model"
)

// ErrMalformedResponse 后端响应无法解析为期望的结构
var ErrMalformedResponse = errors.New("malformed backend response")

// 默认引用标题
const (
	DefaultWebTitle  = "Web Source"
	DefaultMapsTitle = "Google Maps"
)

var fencedJSONRe = regexp.MustCompile("(?is)```json\\s+(.*?)\\s*```")

// score 接受 75 或 75.0 形式的整数分值
type score int

func (s *score) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*s = score(math.Round(f))
	return nil
}

type climateWire struct {
	Flood      score `json:"flood"`
	Heat       score `json:"heat"`
	Drought    score `json:"drought"`
	ForestFire score `json:"forestFire"`
}

type analysisWire struct {
	Coordinates           model.Coordinates     `json:"coordinates"`
	TerrainAnalysis       string                `json:"terrainAnalysis"`
	ClimateRisks          climateWire           `json:"climateRisks"`
	MarketValueEstimation model.ValueEstimation `json:"marketValueEstimation"`
	MarketAnalysis        model.MarketAnalysis  `json:"marketAnalysis"`
	SuggestedFunctions    []string              `json:"suggestedFunctions"`
	InvestmentScore       score                 `json:"investmentScore"`
	Reasoning             string                `json:"reasoning"`
}

func (w *analysisWire) result() *model.AnalysisResult {
	return &model.AnalysisResult{
		Coordinates:     w.Coordinates,
		TerrainAnalysis: w.TerrainAnalysis,
		ClimateRisks: model.ClimateRisk{
			Flood:      int(w.ClimateRisks.Flood),
			Heat:       int(w.ClimateRisks.Heat),
			Drought:    int(w.ClimateRisks.Drought),
			ForestFire: int(w.ClimateRisks.ForestFire),
		},
		MarketValueEstimation: w.MarketValueEstimation,
		MarketAnalysis:        w.MarketAnalysis,
		SuggestedFunctions:    w.SuggestedFunctions,
		InvestmentScore:       int(w.InvestmentScore),
		Reasoning:             w.Reasoning,
	}
}

type matchWire struct {
	MatchingScore  score    `json:"matchingScore"`
	Explanation    string   `json:"explanation"`
	Recommendation bool     `json:"recommendation"`
	Top3Products   []string `json:"top3Products"`
}

// ParseAnalysis 解析分析响应。
// 优先解析 ```json 代码块；没有代码块时解析整个响应体。代码块存在但无法解析时直接失败。
func ParseAnalysis(resp *backend.Response) (*model.AnalysisResult, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	payload := strings.TrimSpace(resp.Text)
	if m := fencedJSONRe.FindStringSubmatch(resp.Text); m != nil {
		payload = m[1]
	}

	var w analysisWire
	if err := decodeObject(payload, &w); err != nil {
		return nil, err
	}
	result := w.result()
	result.GroundingLinks = Links(resp.Citations)
	return result, nil
}

// ParseMatch 解析匹配响应，响应体必须直接是 JSON 对象
func ParseMatch(resp *backend.Response) (*model.MatchResult, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	var w matchWire
	if err := decodeObject(strings.TrimSpace(resp.Text), &w); err != nil {
		return nil, err
	}
	return &model.MatchResult{
		MatchingScore:  int(w.MatchingScore),
		Explanation:    w.Explanation,
		Recommendation: w.Recommendation,
		Top3Products:   w.Top3Products,
	}, nil
}

// Links 将引用转换为 GroundingLink，保持顺序，没有 URI 的引用被丢弃
func Links(citations []backend.Citation) []model.GroundingLink {
	var links []model.GroundingLink
	for _, c := range citations {
		if c.URI == "" {
			continue
		}
		link := model.GroundingLink{Title: c.Title, URI: c.URI}
		switch c.Kind {
		case backend.CitationWeb:
			link.Source = model.SourceSearch
			if link.Title == "" {
				link.Title = DefaultWebTitle
			}
		case backend.CitationMaps:
			link.Source = model.SourceMaps
			if link.Title == "" {
				link.Title = DefaultMapsTitle
			}
		default:
			continue
		}
		links = append(links, link)
	}
	return links
}

func decodeObject(payload string, v any) error {
	data := []byte(payload)
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return fmt.Errorf("%w: payload is not a json object", ErrMalformedResponse)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

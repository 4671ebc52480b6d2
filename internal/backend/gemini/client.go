// Package gemini 基于 google.golang.org/genai 的后端实现，支持 Google Search / Google Maps 检索。
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/iWorld-y/propai/internal/backend"
)

// DefaultModel 默认模型
const DefaultModel = "gemini-2.5-flash"

// contentGenerator 对应 genai.Models 的 GenerateContent，便于测试替换
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client Gemini 后端
type Client struct {
	models contentGenerator
	model  string
}

// Ensure Client implements backend.Generator
var _ backend.Generator = (*Client)(nil)

// NewClient 创建 Gemini 客户端
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is missing")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client failed: %w", err)
	}
	return newClient(c.Models, model), nil
}

func newClient(models contentGenerator, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{models: models, model: model}
}

// Generate implements backend.Generator
func (c *Client) Generate(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	contents, config := buildContent(req)
	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}
	return toResponse(resp), nil
}

// buildContent 将通用请求转换为 genai 的内容和配置
func buildContent(req *backend.Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	parts := []*genai.Part{{Text: req.Prompt}}
	if req.Image != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: req.Image.MIMEType, Data: req.Image.Data},
		})
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	config := &genai.GenerateContentConfig{
		Temperature:      req.Temperature,
		ResponseMIMEType: req.ResponseMIMEType,
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemInstruction}}}
	}
	for _, t := range req.Tools {
		switch t {
		case backend.ToolWebSearch:
			config.Tools = append(config.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
		case backend.ToolMaps:
			config.Tools = append(config.Tools, &genai.Tool{GoogleMaps: &genai.GoogleMaps{}})
		}
	}
	if req.Location != nil {
		lat, lng := req.Location.Latitude, req.Location.Longitude
		config.ToolConfig = &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{Latitude: &lat, Longitude: &lng},
			},
		}
	}
	return contents, config
}

// toResponse 提取首个候选的文本和引用
func toResponse(resp *genai.GenerateContentResponse) *backend.Response {
	out := &backend.Response{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return out
	}
	cand := resp.Candidates[0]

	if cand.Content != nil {
		var sb strings.Builder
		for _, p := range cand.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			sb.WriteString(p.Text)
		}
		out.Text = sb.String()
	}

	if cand.GroundingMetadata == nil {
		return out
	}
	for _, chunk := range cand.GroundingMetadata.GroundingChunks {
		switch {
		case chunk == nil:
		case chunk.Web != nil:
			out.Citations = append(out.Citations, backend.Citation{
				Kind: backend.CitationWeb, URI: chunk.Web.URI, Title: chunk.Web.Title,
			})
		case chunk.Maps != nil:
			out.Citations = append(out.Citations, backend.Citation{
				Kind: backend.CitationMaps, URI: chunk.Maps.URI, Title: chunk.Maps.Title,
			})
		}
	}
	return out
}

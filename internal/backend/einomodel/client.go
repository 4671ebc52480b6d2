// Package einomodel 通过 eino ChatModel 接入任意 OpenAI 兼容的模型服务。
//
// 这类服务没有内置检索工具：请求声明 web_search 时先用 search.Searcher 检索，
// 把结果拼进提示词并作为 web 引用返回；maps 工具退化为文字形式的位置信息。
package einomodel

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-shiori/go-readability"

	"github.com/iWorld-y/propai/internal/backend"
	"github.com/iWorld-y/propai/internal/logger"
	"github.com/iWorld-y/propai/internal/search"
)

const (
	maxSearchResults = 5
	minContentLen    = 500  // 摘要短于该长度时抓取正文
	maxContentLen    = 2000 // 单条结果写入提示词的最大长度
)

// FetchFunc 抓取网页正文
type FetchFunc func(url string) (string, error)

// Client eino 后端
type Client struct {
	chat     model.BaseChatModel
	searcher search.Searcher
	fetch    FetchFunc
}

// Ensure Client implements backend.Generator
var _ backend.Generator = (*Client)(nil)

// Config OpenAI 兼容服务配置
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// NewClient 创建 OpenAI 兼容的 eino 后端，searcher 为空时不做检索
func NewClient(ctx context.Context, cfg Config, searcher search.Searcher) (*Client, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model failed: %w", err)
	}
	return New(chatModel, searcher), nil
}

// New 包装已有的 ChatModel
func New(chat model.BaseChatModel, searcher search.Searcher) *Client {
	return &Client{chat: chat, searcher: searcher, fetch: fetchAndCleanContent}
}

// WithFetch 替换正文抓取函数
func (c *Client) WithFetch(fetch FetchFunc) *Client {
	c.fetch = fetch
	return c
}

// Generate implements backend.Generator
func (c *Client) Generate(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	var citations []backend.Citation
	var extra strings.Builder

	if req.HasTool(backend.ToolWebSearch) {
		block, cites := c.searchContext(ctx, req.SearchHint)
		extra.WriteString(block)
		citations = cites
	}
	if req.HasTool(backend.ToolMaps) && req.Location != nil {
		fmt.Fprintf(&extra, "\n\nVị trí tham chiếu của người dùng: %.6f, %.6f", req.Location.Latitude, req.Location.Longitude)
	}

	system := req.SystemInstruction
	if req.ResponseMIMEType == backend.ResponseMIMEJSON {
		system = strings.TrimSpace(system + "\n\nRespond with a single JSON object only, without markdown.")
	}

	var messages []*schema.Message
	if system != "" {
		messages = append(messages, schema.SystemMessage(system))
	}
	messages = append(messages, userMessage(req.Prompt+extra.String(), req.Image))

	var opts []model.Option
	if req.Temperature != nil {
		opts = append(opts, model.WithTemperature(*req.Temperature))
	}

	resp, err := c.chat.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("chat model generate failed: %w", err)
	}
	return &backend.Response{Text: resp.Content, Citations: citations}, nil
}

func userMessage(text string, img *backend.InlineImage) *schema.Message {
	if img == nil {
		return schema.UserMessage(text)
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))
	return &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: text},
			{Type: schema.ChatMessagePartTypeImageURL, ImageURL: &schema.ChatMessageImageURL{URL: dataURL}},
		},
	}
}

// searchContext 检索并生成附加到提示词的上下文，检索失败只记录日志
func (c *Client) searchContext(ctx context.Context, query string) (string, []backend.Citation) {
	if c.searcher == nil || strings.TrimSpace(query) == "" {
		return "", nil
	}
	resp, err := c.searcher.Search(ctx, &search.Request{Query: query, MaxResults: maxSearchResults})
	if err != nil {
		logger.Log.Warnf("网页检索失败 [%s]: %v", query, err)
		return "", nil
	}

	var sb strings.Builder
	var citations []backend.Citation
	for _, item := range resp.Results {
		content := item.Content
		if len(content) < minContentLen && c.fetch != nil && item.URL != "" {
			if fetched, err := c.fetch(item.URL); err == nil && len(fetched) > len(content) {
				content = fetched
			}
		}
		content = truncate(content, maxContentLen)
		citations = append(citations, backend.Citation{Kind: backend.CitationWeb, URI: item.URL, Title: item.Title})
		fmt.Fprintf(&sb, "\n[%d] %s (%s)\n%s\n", len(citations), item.Title, item.URL, content)
	}
	if len(citations) == 0 {
		return "", nil
	}
	logger.Log.Debugf("网页检索 [%s] 返回 %d 条结果", query, len(citations))
	return "\n\nKết quả tìm kiếm web tham khảo:\n" + sb.String(), citations
}

// truncate 截断到不超过 n 字节，且不拆开多字节字符
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func fetchAndCleanContent(url string) (string, error) {
	article, err := readability.FromURL(url, 30*time.Second)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

package einomodel

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/propai/internal/backend"
	"github.com/iWorld-y/propai/internal/search"
)

type fakeChat struct {
	messages []*schema.Message
	opts     []model.Option
	reply    string
	err      error
}

func (f *fakeChat) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.messages, f.opts = input, opts
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChat) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

type fakeSearcher struct {
	query string
	resp  *search.Response
	err   error
}

func (f *fakeSearcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	f.query = req.Query
	return f.resp, f.err
}

func TestGenerate_WebSearchEmulation(t *testing.T) {
	chat := &fakeChat{reply: "```json\n{}\n```"}
	s := &fakeSearcher{resp: &search.Response{Results: []search.Result{
		{Title: "Giá căn hộ Q1", URL: "https://a", Content: "ngắn"},
		{Title: "Quy hoạch", URL: "https://b", Content: strings.Repeat("x", 3000)},
	}}}
	var fetched []string
	c := New(chat, s).WithFetch(func(url string) (string, error) {
		fetched = append(fetched, url)
		return "nội dung đầy đủ của bài viết", nil
	})

	resp, err := c.Generate(context.Background(), &backend.Request{
		SystemInstruction: "sys",
		Prompt:            "Phân tích",
		Tools:             []backend.Tool{backend.ToolWebSearch, backend.ToolMaps},
		Location:          &backend.LatLng{Latitude: 10.5, Longitude: 106.5},
		Temperature:       backend.Float32(0.4),
		SearchHint:        "Căn hộ 123 Lê Lợi",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if s.query != "Căn hộ 123 Lê Lợi" {
		t.Errorf("search query = %q", s.query)
	}
	if len(fetched) != 1 || fetched[0] != "https://a" {
		t.Errorf("fetched = %v, want only the short hit", fetched)
	}
	if len(resp.Citations) != 2 || resp.Citations[0].URI != "https://a" || resp.Citations[1].Kind != backend.CitationWeb {
		t.Errorf("Citations = %+v", resp.Citations)
	}
	if len(chat.messages) != 2 || chat.messages[0].Role != schema.System {
		t.Fatalf("messages = %+v", chat.messages)
	}
	user := chat.messages[1].Content
	if !strings.Contains(user, "nội dung đầy đủ") || !strings.Contains(user, "10.500000, 106.500000") {
		t.Errorf("user prompt missing search context or location: %q", user)
	}
	if strings.Contains(user, strings.Repeat("x", 2001)) {
		t.Error("search content should be truncated")
	}
	opts := model.GetCommonOptions(nil, chat.opts...)
	if opts.Temperature == nil || *opts.Temperature != 0.4 {
		t.Errorf("temperature option not passed")
	}
}

func TestGenerate_SearchFailureIsNotFatal(t *testing.T) {
	chat := &fakeChat{reply: "{}"}
	c := New(chat, &fakeSearcher{err: errors.New("down")})
	resp, err := c.Generate(context.Background(), &backend.Request{
		Prompt: "p", Tools: []backend.Tool{backend.ToolWebSearch}, SearchHint: "q",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(resp.Citations) != 0 || resp.Text != "{}" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGenerate_JSONModeAndImage(t *testing.T) {
	chat := &fakeChat{reply: `{"matchingScore":80}`}
	c := New(chat, nil)
	_, err := c.Generate(context.Background(), &backend.Request{
		Prompt:           "match",
		Image:            &backend.InlineImage{MIMEType: "image/jpeg", Data: []byte("abc")},
		ResponseMIMEType: backend.ResponseMIMEJSON,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(chat.messages[0].Content, "JSON") {
		t.Errorf("system message should request JSON: %q", chat.messages[0].Content)
	}
	parts := chat.messages[1].MultiContent
	if len(parts) != 2 || parts[1].ImageURL.URL != "data:image/jpeg;base64,YWJj" {
		t.Errorf("MultiContent = %+v", parts)
	}
}

func TestGenerate_ModelError(t *testing.T) {
	boom := errors.New("429 too many requests")
	c := New(&fakeChat{err: boom}, nil)
	if _, err := c.Generate(context.Background(), &backend.Request{Prompt: "p"}); !errors.Is(err, boom) {
		t.Errorf("Generate() error = %v", err)
	}
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	// "ệ" 占 3 字节
	s := strings.Repeat("ệ", 10)
	for n := 0; n <= len(s); n++ {
		got := truncate(s, n)
		if !utf8.ValidString(got) || len(got) > n || len(got) < n-2 {
			t.Errorf("truncate(%d) = %q (len %d)", n, got, len(got))
		}
	}
	if truncate("abc", 10) != "abc" {
		t.Error("short strings must be unchanged")
	}
}

func TestGenerate_SearchContextIsValidUTF8(t *testing.T) {
	chat := &fakeChat{reply: "{}"}
	// 前缀 1 字节让 maxContentLen 落在 "ố" 中间
	content := "a" + strings.Repeat("ố", maxContentLen)
	s := &fakeSearcher{resp: &search.Response{Results: []search.Result{
		{Title: "Quận 1", URL: "https://a", Content: content},
	}}}
	c := New(chat, s).WithFetch(nil)

	if _, err := c.Generate(context.Background(), &backend.Request{
		Prompt:     "p",
		Tools:      []backend.Tool{backend.ToolWebSearch},
		SearchHint: "Quận 1",
	}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	prompt := chat.messages[len(chat.messages)-1].Content
	if !utf8.ValidString(prompt) {
		t.Error("prompt contains invalid UTF-8")
	}
}

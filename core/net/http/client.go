package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultBufferSize = 4096
	maxBufferSize     = 1024 * 1024
	// 错误响应最多保留的正文长度
	maxErrorBody = 512
)

// StatusError 非 2xx 响应
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// Client 出站 HTTP 客户端
type Client struct {
	client     *http.Client
	userAgent  string
	bufferPool sync.Pool
}

// Option 客户端选项
type Option func(*Client)

// WithClient 使用自定义的 http.Client
func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout 单次请求的整体超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		client: &http.Client{},
		bufferPool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, defaultBufferSize))
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestOption 单次请求选项
type RequestOption struct {
	header   map[string]string
	response any
}

func WithHeader(header map[string]string) func(*RequestOption) {
	return func(opt *RequestOption) {
		maps.Copy(opt.header, header)
	}
}

// WithResponse 将 JSON 响应解码到 dest
func WithResponse(dest any) func(*RequestOption) {
	return func(opt *RequestOption) {
		opt.response = dest
	}
}

// Request 发送请求并读完响应。body 为 url.Values 时按表单编码，io.Reader 原样发送，其余按 JSON 编码。
// 非 2xx 响应返回 *StatusError
func (c *Client) Request(ctx context.Context, method, rawURL string, body any, opts ...func(*RequestOption)) (int, error) {
	opt := &RequestOption{header: make(map[string]string, 4)}

	buf := c.getBuffer()
	defer c.putBuffer(buf)

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case url.Values:
		opt.header["Content-Type"] = ContentTypeForm
		reader = strings.NewReader(v.Encode())
	case io.Reader:
		reader = v
	default:
		opt.header["Content-Type"] = ContentTypeJSON
		if err := json.NewEncoder(buf).Encode(v); err != nil {
			return 0, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf.Bytes())
	}
	for _, o := range opts {
		o(opt)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return 0, err
	}
	for k, v := range opt.header {
		req.Header.Set(k, v)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &StatusError{Method: method, URL: rawURL, Code: resp.StatusCode, Body: string(data)}
	}
	if opt.response != nil {
		if err := json.NewDecoder(resp.Body).Decode(opt.response); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
		return resp.StatusCode, nil
	}
	// 读完正文以复用连接
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *Client) getBuffer() *bytes.Buffer {
	buf := c.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func (c *Client) putBuffer(buf *bytes.Buffer) {
	if buf.Cap() <= maxBufferSize {
		c.bufferPool.Put(buf)
	}
}

// Get 发送 GET 请求
func (c *Client) Get(ctx context.Context, rawURL string, opts ...func(*RequestOption)) (int, error) {
	return c.Request(ctx, MethodGet, rawURL, nil, opts...)
}

// PostForm 以表单提交
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, opts ...func(*RequestOption)) (int, error) {
	return c.Request(ctx, MethodPost, rawURL, form, opts...)
}

// PostJSON 以 JSON 提交
func (c *Client) PostJSON(ctx context.Context, rawURL string, body any, opts ...func(*RequestOption)) (int, error) {
	return c.Request(ctx, MethodPost, rawURL, body, opts...)
}

package bilibili

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vida-collector/internal/credential"
)

const (
	rootPagePath  = "/x/v2/reply"
	replyPagePath = "/x/v2/reply/reply"

	maxBodySize = 8 << 20
)

// FetchKind 请求失败分类
type FetchKind int

const (
	// Transient 网络错误、限流、5xx：可以重试
	Transient FetchKind = iota + 1
	// Fatal 凭证错误或无法恢复的协议错误：必须终止
	Fatal
)

func (k FetchKind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// FetchError 分页请求失败
type FetchError struct {
	Kind       FetchKind
	StatusCode int
	Code       int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s fetch error", e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (http %d)", e.StatusCode)
	}
	if e.Code != 0 {
		fmt.Fprintf(&b, " (code %d)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTransient 判断错误是否可重试
func IsTransient(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == Transient
}

// IsFatal 判断错误是否必须终止遍历
func IsFatal(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == Fatal
}

// 接口业务码分类
var (
	transientCodes = map[int]bool{
		-352: true, // 风控校验
		-412: true, // 请求被拦截
		-503: true, // 服务过载
		-509: true, // 请求过于频繁
		-799: true, // 请求过于频繁
	}
	// 评论区关闭或不存在：视为没有数据
	emptyCodes = map[int]bool{
		12002: true,
		12009: true,
		12061: true,
	}
)

// PageKind 分页请求类型
type PageKind string

const (
	RootPage  PageKind = "root"
	ReplyPage PageKind = "reply"
)

// Archiver 接收每个成功分页的原始响应
type Archiver interface {
	ArchivePage(ctx context.Context, ref PageRef, body []byte) error
}

// PageRef 标识一个分页请求
type PageRef struct {
	Kind   PageKind
	Oid    int64
	RootID int64
	Page   int
}

// ClientOptions Client 初始化参数
type ClientOptions struct {
	BaseURL  string
	Timeout  time.Duration
	Proxy    string
	Archiver Archiver
	// OnArchiveError 归档失败回调，归档失败不影响采集
	OnArchiveError func(ref PageRef, err error)
}

// Client B站评论接口客户端
type Client struct {
	http     *http.Client
	baseURL  string
	creds    *credential.Store
	archiver Archiver
	onArcErr func(ref PageRef, err error)
}

// NewClient 创建评论接口客户端
func NewClient(creds *credential.Store, opts ClientOptions) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.bilibili.com"
	}

	return &Client{
		http:     &http.Client{Timeout: timeout, Transport: transport},
		baseURL:  baseURL,
		creds:    creds,
		archiver: opts.Archiver,
		onArcErr: opts.OnArchiveError,
	}, nil
}

// FetchRootPage 获取视频主评论第 page 页（按时间排序，避免漏数据）
func (c *Client) FetchRootPage(ctx context.Context, oid int64, page, pageSize int) (*Page, error) {
	params := url.Values{}
	params.Set("type", "1")
	params.Set("oid", strconv.FormatInt(oid, 10))
	params.Set("sort", "0")
	params.Set("nohot", "0")
	params.Set("ps", strconv.Itoa(pageSize))
	params.Set("pn", strconv.Itoa(page))

	return c.fetch(ctx, rootPagePath, params, PageRef{Kind: RootPage, Oid: oid, Page: page})
}

// FetchReplyPage 获取指定主评论的子评论第 page 页
func (c *Client) FetchReplyPage(ctx context.Context, oid, rootID int64, page, pageSize int) (*Page, error) {
	params := url.Values{}
	params.Set("type", "1")
	params.Set("oid", strconv.FormatInt(oid, 10))
	params.Set("root", strconv.FormatInt(rootID, 10))
	params.Set("ps", strconv.Itoa(pageSize))
	params.Set("pn", strconv.Itoa(page))

	return c.fetch(ctx, replyPagePath, params, PageRef{Kind: ReplyPage, Oid: oid, RootID: rootID, Page: page})
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values, ref PageRef) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &FetchError{Kind: Fatal, Err: err}
	}
	// 每个请求只读取一次凭证快照
	req.Header = c.creds.Load().Header()

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &FetchError{Kind: Transient, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &FetchError{Kind: Transient, StatusCode: resp.StatusCode, Err: err}
	}

	if kind, failed := classifyStatus(resp.StatusCode); failed {
		return nil, &FetchError{Kind: kind, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &FetchError{Kind: Fatal, StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}

	switch {
	case env.Code == 0:
	case emptyCodes[env.Code]:
		return &Page{Num: ref.Page}, nil
	case transientCodes[env.Code]:
		return nil, &FetchError{Kind: Transient, Code: env.Code, Message: env.Message}
	default:
		return nil, &FetchError{Kind: Fatal, Code: env.Code, Message: env.Message}
	}

	page := &Page{Num: ref.Page}
	if env.Data != nil {
		page.Size = env.Data.Page.Size
		page.DeclaredTotal = int64(env.Data.Page.Count)
		page.Items = env.Data.Replies
		if env.Data.Page.Num > 0 {
			page.Num = env.Data.Page.Num
		}
	}

	if c.archiver != nil {
		if err := c.archiver.ArchivePage(ctx, ref, body); err != nil && c.onArcErr != nil {
			c.onArcErr(ref, err)
		}
	}

	return page, nil
}

func classifyStatus(status int) (FetchKind, bool) {
	switch {
	case status >= 200 && status < 300:
		return 0, false
	case status == http.StatusTooManyRequests,
		status == http.StatusForbidden,
		status == http.StatusPreconditionFailed,
		status == http.StatusRequestTimeout,
		status >= 500:
		return Transient, true
	default:
		return Fatal, true
	}
}

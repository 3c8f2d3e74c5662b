package collector

import (
	"context"
	"fmt"
	"sync"

	"vida-collector/internal/bilibili"

	"go.uber.org/zap"
)

type step struct {
	page *bilibili.Page
	err  error
}

// fakeFetcher 按页号返回预置结果；同一页有多个结果时按调用顺序依次返回，最后一个结果重复使用
type fakeFetcher struct {
	mu sync.Mutex

	root    map[int][]step
	replies map[int64]map[int][]step
	replyFn func(rootID int64, pn int) (*bilibili.Page, error)

	rootCalls  []int
	replyCalls map[int64][]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		root:       make(map[int][]step),
		replies:    make(map[int64]map[int][]step),
		replyCalls: make(map[int64][]int),
	}
}

func (f *fakeFetcher) onRoot(pn int, steps ...step) *fakeFetcher {
	f.root[pn] = steps
	return f
}

func (f *fakeFetcher) onReply(rootID int64, pn int, steps ...step) *fakeFetcher {
	if f.replies[rootID] == nil {
		f.replies[rootID] = make(map[int][]step)
	}
	f.replies[rootID][pn] = steps
	return f
}

func (f *fakeFetcher) FetchRootPage(ctx context.Context, _ int64, page, _ int) (*bilibili.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rootCalls = append(f.rootCalls, page)
	return pop(f.root, page)
}

func (f *fakeFetcher) FetchReplyPage(ctx context.Context, _, rootID int64, page, _ int) (*bilibili.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.replyCalls[rootID] = append(f.replyCalls[rootID], page)
	fn := f.replyFn
	f.mu.Unlock()

	if fn != nil {
		return fn(rootID, page)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return pop(f.replies[rootID], page)
}

func (f *fakeFetcher) rootCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rootCalls)
}

func (f *fakeFetcher) replyCallCount(rootID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replyCalls[rootID])
}

func pop(m map[int][]step, pn int) (*bilibili.Page, error) {
	steps := m[pn]
	if len(steps) == 0 {
		return &bilibili.Page{Num: pn}, nil
	}
	s := steps[0]
	if len(steps) > 1 {
		m[pn] = steps[1:]
	}
	return s.page, s.err
}

func okStep(p *bilibili.Page) step { return step{page: p} }

func failStep(err error) step { return step{err: err} }

var (
	errTransient = &bilibili.FetchError{Kind: bilibili.Transient, Code: -412, Message: "请求被拦截"}
	errFatal     = &bilibili.FetchError{Kind: bilibili.Fatal, Code: -101, Message: "账号未登录"}
)

func mkPage(num, size int, total int64, items ...bilibili.RawComment) *bilibili.Page {
	return &bilibili.Page{Num: num, Size: size, DeclaredTotal: total, Items: items}
}

func comment(id int64, replyCount int64, replies ...bilibili.RawComment) bilibili.RawComment {
	return bilibili.RawComment{
		Rpid:    bilibili.FlexInt64(id),
		Oid:     12345,
		Type:    1,
		Mid:     bilibili.FlexInt64(id%97 + 1),
		Rcount:  bilibili.FlexInt64(replyCount),
		Like:    3,
		Ctime:   1700000000,
		Member:  bilibili.RawMember{Uname: fmt.Sprintf("user%d", id), Sex: "男"},
		Content: bilibili.RawContent{Message: fmt.Sprintf("comment %d", id)},
		Replies: replies,
	}
}

// comments 生成 id 为 from..from+n-1 的评论
func comments(from int64, n int) []bilibili.RawComment {
	out := make([]bilibili.RawComment, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, comment(from+int64(i), 0))
	}
	return out
}

func noDelay() *Throttle {
	return NewThrottle(ThrottleOptions{})
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

package bilibili

import "context"

type traceKey struct{}

// Trace 随请求上下文传递的任务信息，归档时用于生成对象路径
type Trace struct {
	TaskID int64
	Bvid   string
}

// WithTrace 把任务信息附加到上下文
func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// TraceFrom 读取上下文中的任务信息
func TraceFrom(ctx context.Context) (Trace, bool) {
	t, ok := ctx.Value(traceKey{}).(Trace)
	return t, ok
}

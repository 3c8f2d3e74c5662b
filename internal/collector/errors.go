package collector

import "errors"

var (
	// ErrValidation 记录缺少 rpid/oid/bvid，被丢弃
	ErrValidation = errors.New("comment record failed validation")
	// ErrFirstPageUnavailable 首页重试后仍然失败，任务无法开始
	ErrFirstPageUnavailable = errors.New("first root page unavailable")
	// ErrWalkAborted 上游返回不可恢复错误，主评论遍历中止
	ErrWalkAborted = errors.New("root comment walk aborted")
)

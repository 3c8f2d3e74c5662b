package bilibili

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexInt64 兼容 JSON 数字与数字字符串的整型字段
// B站对超出 JS 安全整数范围的 ID 会同时给出字符串形式
type FlexInt64 int64

// UnmarshalJSON 接受 123、"123"、""、null
func (f *FlexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("flex int64: %q is not numeric", s)
		}
		*f = FlexInt64(n)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*f = FlexInt64(i)
		return nil
	}
	// 浮点形式（如 1.7e9），截断为整数
	fl, err := n.Float64()
	if err != nil {
		return fmt.Errorf("flex int64: %s is not numeric", n)
	}
	*f = FlexInt64(int64(fl))
	return nil
}

// ResolveID 按约定优先级解析 ID：可解析的字符串形式优先，其次数值形式
func ResolveID(str string, num FlexInt64) int64 {
	if s := strings.TrimSpace(str); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	return int64(num)
}

// RawComment 评论接口返回的单条原始评论（主评论或子评论）
type RawComment struct {
	Rpid      FlexInt64    `json:"rpid"`
	RpidStr   string       `json:"rpid_str"`
	Oid       FlexInt64    `json:"oid"`
	OidStr    string       `json:"oid_str"`
	Type      int          `json:"type"`
	Mid       FlexInt64    `json:"mid"`
	MidStr    string       `json:"mid_str"`
	Root      FlexInt64    `json:"root"`
	RootStr   string       `json:"root_str"`
	Parent    FlexInt64    `json:"parent"`
	ParentStr string       `json:"parent_str"`
	Dialog    FlexInt64    `json:"dialog"`
	DialogStr string       `json:"dialog_str"`
	Count     FlexInt64    `json:"count"`
	Rcount    FlexInt64    `json:"rcount"`
	Like      FlexInt64    `json:"like"`
	Ctime     FlexInt64    `json:"ctime"`
	Member    RawMember    `json:"member"`
	Content   RawContent   `json:"content"`
	Replies   []RawComment `json:"replies"`
}

// ID 返回评论 rpid
func (r *RawComment) ID() int64 {
	return ResolveID(r.RpidStr, r.Rpid)
}

// ReplyCount 返回声明的子评论总数（rcount 缺失时退回 count）
func (r *RawComment) ReplyCount() int64 {
	if r.Rcount > 0 {
		return int64(r.Rcount)
	}
	return int64(r.Count)
}

// RawMember 评论作者信息
type RawMember struct {
	Mid            string          `json:"mid"`
	Uname          string          `json:"uname"`
	Sex            string          `json:"sex"`
	Sign           string          `json:"sign"`
	LevelInfo      RawLevelInfo    `json:"level_info"`
	Vip            RawVip          `json:"vip"`
	FansDetail     *RawFansDetail  `json:"fans_detail"`
	OfficialVerify json.RawMessage `json:"official_verify"`
}

// RawLevelInfo 用户等级
type RawLevelInfo struct {
	CurrentLevel int `json:"current_level"`
}

// RawVip 大会员信息
type RawVip struct {
	VipType int `json:"vipType"`
}

// RawFansDetail 粉丝勋章
type RawFansDetail struct {
	UID        FlexInt64 `json:"uid"`
	MedalID    FlexInt64 `json:"medal_id"`
	MedalName  string    `json:"medal_name"`
	Level      int       `json:"level"`
	GuardLevel int       `json:"guard_level"`
}

// RawContent 评论正文
type RawContent struct {
	Message string                `json:"message"`
	Members []RawMention          `json:"members"`
	JumpURL map[string]RawJumpURL `json:"jump_url"`
}

// RawMention 正文中 @ 的用户
type RawMention struct {
	Mid   FlexInt64 `json:"mid"`
	Uname string    `json:"uname"`
}

// RawJumpURL 正文中的跳转链接
type RawJumpURL struct {
	Title string `json:"title"`
}

// PageInfo 分页元数据
type PageInfo struct {
	Num   int       `json:"num"`
	Size  int       `json:"size"`
	Count FlexInt64 `json:"count"`
}

// apiEnvelope 评论接口的统一响应结构
type apiEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *struct {
		Page    PageInfo     `json:"page"`
		Replies []RawComment `json:"replies"`
	} `json:"data"`
}

// Page 一次分页请求的结果
type Page struct {
	Num           int
	Size          int
	DeclaredTotal int64
	Items         []RawComment
}

// Empty 请求成功但没有数据，表示分页已耗尽
func (p *Page) Empty() bool {
	return p == nil || len(p.Items) == 0
}

package collector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"vida-collector/internal/bilibili"
	"vida-collector/internal/model"
)

const (
	defaultSex = "保密"

	// 9999-12-31T23:59:59Z，超出则视为脏数据
	maxCtimeUnix = 253402300799
)

// Position 记录在评论树中的位置
type Position struct {
	Bvid string
	Oid  int64
	// RootID 子评论所属主评论，主评论为 0
	RootID int64
	IsSub  bool
}

// Normalizer 把原始评论转换成扁平记录，纯函数：同样输入得到同样输出
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer now 用于 ctime 缺失或非法时的兜底时间，为 nil 时使用 time.Now
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize 转换单条评论，缺少 rpid/oid/bvid 时返回 ErrValidation
func (n *Normalizer) Normalize(raw *bilibili.RawComment, pos Position) (*model.Comment, error) {
	rpid := raw.ID()

	oid := bilibili.ResolveID(raw.OidStr, raw.Oid)
	if oid == 0 {
		oid = pos.Oid
	}

	c := &model.Comment{
		Rpid:     rpid,
		Oid:      oid,
		Bvid:     pos.Bvid,
		IsSub:    pos.IsSub,
		DialogID: bilibili.ResolveID(raw.DialogStr, raw.Dialog),
	}

	if pos.IsSub {
		c.RootID = pos.RootID
		if c.RootID == 0 {
			c.RootID = bilibili.ResolveID(raw.RootStr, raw.Root)
		}
		c.ParentID = bilibili.ResolveID(raw.ParentStr, raw.Parent)
		if c.ParentID == 0 {
			c.ParentID = c.RootID
		}
	} else {
		c.RootID = rpid
	}

	n.fillMember(c, raw)
	fillContent(c, &raw.Content)

	c.LikeCount = int64(raw.Like)
	c.ReplyCount = raw.ReplyCount()

	ctime := int64(raw.Ctime)
	if ctime <= 0 || ctime > maxCtimeUnix {
		ctime = n.now().Unix()
	}
	c.CtimeUnix = ctime
	c.Ctime = time.Unix(ctime, 0).UTC()

	if !c.Valid() {
		return nil, fmt.Errorf("%w: rpid=%d oid=%d bvid=%q", ErrValidation, c.Rpid, c.Oid, c.Bvid)
	}
	return c, nil
}

func (n *Normalizer) fillMember(c *model.Comment, raw *bilibili.RawComment) {
	m := &raw.Member

	c.Mid = bilibili.ResolveID(raw.MidStr, raw.Mid)
	if c.Mid == 0 {
		if mid, err := strconv.ParseInt(strings.TrimSpace(m.Mid), 10, 64); err == nil {
			c.Mid = mid
		}
	}

	c.Uname = m.Uname
	c.Sign = m.Sign
	c.UserLevel = int32(m.LevelInfo.CurrentLevel)
	c.UserSex = m.Sex
	if c.UserSex == "" {
		c.UserSex = defaultSex
	}
	c.VipType = int32(m.Vip.VipType)

	if fd := m.FansDetail; fd != nil {
		c.MedalUID = int64(fd.UID)
		c.MedalID = int64(fd.MedalID)
		c.MedalName = fd.MedalName
		c.MedalLevel = int32(fd.Level)
		c.MedalGuardLevel = int32(fd.GuardLevel)
	}

	c.OfficialVerify = compactJSON(m.OfficialVerify)
}

func fillContent(c *model.Comment, content *bilibili.RawContent) {
	c.Message = content.Message

	c.MentionsMids = make([]int64, 0, len(content.Members))
	for _, m := range content.Members {
		if m.Mid != 0 {
			c.MentionsMids = append(c.MentionsMids, int64(m.Mid))
		}
	}

	// jump_url 是无序对象，取字典序最小的 key 保证结果稳定
	if len(content.JumpURL) > 0 {
		keys := make([]string, 0, len(content.JumpURL))
		for k := range content.JumpURL {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		c.JumpURL = keys[0]
		c.JumpURLTitle = content.JumpURL[keys[0]].Title
	}
}

func compactJSON(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

package model

import "time"

// Comment 标准化后的扁平评论记录（主评论与子评论同表）
// ch 标签对应 ClickHouse 列名，json 标签用于接口输出与检索索引
type Comment struct {
	Rpid     int64  `ch:"rpid" json:"rpid,string"`
	Oid      int64  `ch:"oid" json:"oid,string"`
	Bvid     string `ch:"bvid" json:"bvid"`
	RootID   int64  `ch:"root_id" json:"root_id,string"`
	ParentID int64  `ch:"parent_id" json:"parent_id,string"`
	DialogID int64  `ch:"dialog_id" json:"dialog_id,string"`
	IsSub    bool   `ch:"is_sub" json:"is_sub"`

	Mid             int64  `ch:"mid" json:"mid,string"`
	Uname           string `ch:"uname" json:"uname"`
	Sign            string `ch:"sign" json:"sign"`
	UserLevel       int32  `ch:"user_level" json:"user_level"`
	UserSex         string `ch:"user_sex" json:"user_sex"`
	VipType         int32  `ch:"vip_type" json:"vip_type"`
	MedalUID        int64  `ch:"medal_uid" json:"medal_uid"`
	MedalID         int64  `ch:"medal_id" json:"medal_id"`
	MedalName       string `ch:"medal_name" json:"medal_name"`
	MedalLevel      int32  `ch:"medal_level" json:"medal_level"`
	MedalGuardLevel int32  `ch:"medal_guard_level" json:"medal_guard_level"`

	Message        string  `ch:"message" json:"message"`
	MentionsMids   []int64 `ch:"mentions_mids" json:"mentions_mids"`
	JumpURL        string  `ch:"jump_url" json:"jump_url"`
	JumpURLTitle   string  `ch:"jump_url_title" json:"jump_url_title"`
	OfficialVerify string  `ch:"official_verify" json:"official_verify"`

	LikeCount  int64     `ch:"like_count" json:"like_count"`
	ReplyCount int64     `ch:"reply_count" json:"reply_count"`
	Ctime      time.Time `ch:"ctime" json:"ctime"`
	CtimeUnix  int64     `ch:"ctime_unix" json:"ctime_unix"`
}

// Valid 记录是否满足入库条件
func (c *Comment) Valid() bool {
	return c.Rpid != 0 && c.Oid != 0 && c.Bvid != ""
}

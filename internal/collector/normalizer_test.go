package collector

import (
	"encoding/json"
	"testing"
	"time"

	"vida-collector/internal/bilibili"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rootFixture = `{
	"rpid": 237560915408,
	"rpid_str": "237560915408",
	"oid": 12345,
	"type": 1,
	"mid": 9527,
	"root": 0,
	"parent": 0,
	"dialog": 0,
	"count": 4,
	"rcount": 3,
	"like": 88,
	"ctime": 1700000000,
	"member": {
		"mid": "9527",
		"uname": "测试用户",
		"sex": "",
		"sign": "hello",
		"level_info": {"current_level": 6},
		"vip": {"vipType": 2},
		"fans_detail": {"uid": 9527, "medal_id": 4321, "medal_name": "勋章", "level": 12, "guard_level": 3},
		"official_verify": {"type": 0, "desc": "认证"}
	},
	"content": {
		"message": "回复 @a :hi @b",
		"members": [{"mid": "111", "uname": "a"}, {"mid": 222, "uname": "b"}],
		"jump_url": {
			"zeta": {"title": "Z"},
			"alpha": {"title": "A"}
		}
	}
}`

var fixedNow = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func decodeRaw(t *testing.T, s string) *bilibili.RawComment {
	t.Helper()
	var raw bilibili.RawComment
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	return &raw
}

func TestNormalizer_RootComment(t *testing.T) {
	n := NewNormalizer(func() time.Time { return fixedNow })
	raw := decodeRaw(t, rootFixture)

	c, err := n.Normalize(raw, Position{Bvid: "BV18x411c74Q", Oid: 12345})
	require.NoError(t, err)

	assert.EqualValues(t, 237560915408, c.Rpid)
	assert.EqualValues(t, 12345, c.Oid)
	assert.Equal(t, "BV18x411c74Q", c.Bvid)
	assert.Equal(t, c.Rpid, c.RootID)
	assert.Zero(t, c.ParentID)
	assert.False(t, c.IsSub)

	assert.EqualValues(t, 9527, c.Mid)
	assert.Equal(t, "测试用户", c.Uname)
	assert.Equal(t, "保密", c.UserSex)
	assert.EqualValues(t, 6, c.UserLevel)
	assert.EqualValues(t, 2, c.VipType)
	assert.EqualValues(t, 4321, c.MedalID)
	assert.Equal(t, "勋章", c.MedalName)
	assert.EqualValues(t, 12, c.MedalLevel)
	assert.EqualValues(t, 3, c.MedalGuardLevel)
	assert.JSONEq(t, `{"type":0,"desc":"认证"}`, c.OfficialVerify)

	assert.Equal(t, []int64{111, 222}, c.MentionsMids)
	assert.Equal(t, "alpha", c.JumpURL)
	assert.Equal(t, "A", c.JumpURLTitle)

	assert.EqualValues(t, 88, c.LikeCount)
	assert.EqualValues(t, 3, c.ReplyCount)
	assert.EqualValues(t, 1700000000, c.CtimeUnix)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), c.Ctime)
}

func TestNormalizer_Idempotent(t *testing.T) {
	n := NewNormalizer(func() time.Time { return fixedNow })
	raw := decodeRaw(t, rootFixture)
	pos := Position{Bvid: "BV18x411c74Q", Oid: 12345}

	a, err := n.Normalize(raw, pos)
	require.NoError(t, err)
	b, err := n.Normalize(raw, pos)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestNormalizer_SubComment(t *testing.T) {
	n := NewNormalizer(nil)
	raw := decodeRaw(t, `{"rpid": 10, "oid": 12345, "root": 1, "parent": 0, "dialog": 7, "ctime": 1700000100, "member": {"mid": "42", "sex": "女"}}`)

	c, err := n.Normalize(raw, Position{Bvid: "BV18x411c74Q", Oid: 12345, RootID: 1, IsSub: true})
	require.NoError(t, err)

	assert.True(t, c.IsSub)
	assert.EqualValues(t, 1, c.RootID)
	assert.EqualValues(t, 1, c.ParentID, "parent falls back to root")
	assert.EqualValues(t, 7, c.DialogID)
	assert.EqualValues(t, 42, c.Mid, "member mid used when top-level mid missing")
	assert.Equal(t, "女", c.UserSex)
	assert.Empty(t, c.MentionsMids)
	assert.NotNil(t, c.MentionsMids)
}

func TestNormalizer_PrefersStringIDs(t *testing.T) {
	n := NewNormalizer(nil)
	raw := decodeRaw(t, `{"rpid": 1.2345678901234567e17, "rpid_str": "123456789012345678", "oid": 12345, "ctime": 1}`)

	c, err := n.Normalize(raw, Position{Bvid: "BV18x411c74Q", Oid: 12345})
	require.NoError(t, err)
	assert.EqualValues(t, int64(123456789012345678), c.Rpid)
}

func TestNormalizer_CtimeFallback(t *testing.T) {
	n := NewNormalizer(func() time.Time { return fixedNow })

	for _, ctime := range []string{`0`, `-5`, `null`, `"999999999999999"`} {
		raw := decodeRaw(t, `{"rpid": 1, "oid": 12345, "ctime": `+ctime+`}`)
		c, err := n.Normalize(raw, Position{Bvid: "BV18x411c74Q", Oid: 12345})
		require.NoError(t, err, ctime)
		assert.Equal(t, fixedNow, c.Ctime, ctime)
		assert.Equal(t, fixedNow.Unix(), c.CtimeUnix, ctime)
	}
}

func TestNormalizer_Validation(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name string
		raw  string
		pos  Position
	}{
		{"missing rpid", `{"oid": 12345}`, Position{Bvid: "BV18x411c74Q", Oid: 12345}},
		{"missing oid", `{"rpid": 1}`, Position{Bvid: "BV18x411c74Q"}},
		{"missing bvid", `{"rpid": 1, "oid": 12345}`, Position{Oid: 12345}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(decodeRaw(t, tt.raw), tt.pos)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestNormalizer_OidFromPosition(t *testing.T) {
	n := NewNormalizer(nil)
	c, err := n.Normalize(decodeRaw(t, `{"rpid": 5, "ctime": 1700000000}`), Position{Bvid: "BV18x411c74Q", Oid: 12345})
	require.NoError(t, err)
	assert.EqualValues(t, 12345, c.Oid)
}

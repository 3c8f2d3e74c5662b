package bilibili

import (
	"errors"
	"fmt"
	"strings"
)

// ErrResolution BV号无法解析为 aid
var ErrResolution = errors.New("invalid bvid")

const (
	bvAlphabet = "FcwAPNKTMug3GV5Lj7EJnHpWsx4tb8haYeviqBz6rkCy12mUSDQX9RdoZf"
	bvBase     = 58
	bvLength   = 12
	bvPrefix   = "BV1"

	xorCode  = 23442827791579
	maskCode = 2251799813685247
	maxAID   = int64(1) << 51
)

var bvIndex = func() map[byte]int64 {
	m := make(map[byte]int64, len(bvAlphabet))
	for i := 0; i < len(bvAlphabet); i++ {
		m[bvAlphabet[i]] = int64(i)
	}
	return m
}()

// swap 按 B站编码规则交换第 3/9 位与第 4/7 位
func swap(b []byte) {
	b[3], b[9] = b[9], b[3]
	b[4], b[7] = b[7], b[4]
}

// BVToAID 将 BV 号转换为数值 aid（评论接口的 oid）
// 纯计算，无网络请求；结果经过反向编码校验
func BVToAID(bvid string) (int64, error) {
	if len(bvid) != bvLength {
		return 0, fmt.Errorf("%w: %q has length %d", ErrResolution, bvid, len(bvid))
	}
	if !strings.EqualFold(bvid[:2], "BV") || bvid[2] != '1' {
		return 0, fmt.Errorf("%w: %q must start with %s", ErrResolution, bvid, bvPrefix)
	}

	b := []byte(bvPrefix + bvid[3:])
	swap(b)

	var tmp int64
	for _, c := range b[3:] {
		idx, ok := bvIndex[c]
		if !ok {
			return 0, fmt.Errorf("%w: %q contains illegal character %q", ErrResolution, bvid, c)
		}
		tmp = tmp*bvBase + idx
	}

	aid := (tmp & maskCode) ^ xorCode
	if aid <= 0 {
		return 0, fmt.Errorf("%w: %q decodes to non-positive aid", ErrResolution, bvid)
	}

	// 校验：重新编码必须得到同一个 BV 号
	back, err := AIDToBV(aid)
	if err != nil || back != bvPrefix+bvid[3:] {
		return 0, fmt.Errorf("%w: %q failed checksum", ErrResolution, bvid)
	}

	return aid, nil
}

// AIDToBV 将数值 aid 编码为 BV 号
func AIDToBV(aid int64) (string, error) {
	if aid <= 0 || aid >= maxAID {
		return "", fmt.Errorf("%w: aid %d out of range", ErrResolution, aid)
	}

	b := []byte("BV1000000000")
	idx := bvLength - 1
	tmp := (maxAID | aid) ^ xorCode
	for tmp > 0 && idx >= 3 {
		b[idx] = bvAlphabet[tmp%bvBase]
		tmp /= bvBase
		idx--
	}
	swap(b)

	return string(b), nil
}

package bilibili

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

var bvPattern = regexp.MustCompile(`(?:^|video/|/)(BV[A-Za-z0-9]{10})`)

// ExtractBVID 从 BV 号、视频链接或 b23.tv 短链中提取 BV 号
// 短链通过跟随重定向解析，httpClient 为 nil 时使用 http.DefaultClient
func ExtractBVID(ctx context.Context, httpClient *http.Client, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty input", ErrResolution)
	}

	if strings.Contains(input, "b23.tv") {
		resolved, err := followRedirect(ctx, httpClient, input)
		if err != nil {
			return "", fmt.Errorf("%w: resolve short link: %v", ErrResolution, err)
		}
		input = resolved
	}

	m := bvPattern.FindStringSubmatch(input)
	if m == nil {
		return "", fmt.Errorf("%w: cannot extract BV id from %q", ErrResolution, input)
	}
	return m[1], nil
}

func followRedirect(ctx context.Context, httpClient *http.Client, link string) (string, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if !strings.HasPrefix(link, "http") {
		link = "https://" + link
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return resp.Request.URL.String(), nil
}

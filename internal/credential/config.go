package credential

import "vida-collector/internal/config"

// FromConfig 由配置文件中的默认凭证构造初始快照
func FromConfig(cfg *config.BilibiliConfig) Credential {
	return Credential{
		Cookie:         cfg.Cookie,
		UserAgent:      cfg.UserAgent,
		Referer:        cfg.Referer,
		Origin:         cfg.Origin,
		AcceptLanguage: cfg.AcceptLanguage,
	}
}

package collector

import (
	"time"

	"vida-collector/internal/config"
)

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// ThrottleOptionsFrom 由配置（秒）生成节流参数
func ThrottleOptionsFrom(cfg *config.ThrottleConfig) ThrottleOptions {
	return ThrottleOptions{
		RootBase:      seconds(cfg.RootBase),
		RootFloor:     seconds(cfg.RootFloor),
		RootCeiling:   seconds(cfg.RootCeiling),
		ReplyDelay:    seconds(cfg.ReplyDelay),
		Cooldown:      seconds(cfg.Cooldown),
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
	}
}

// OptionsFrom 由配置生成采集参数
func OptionsFrom(cfg *config.CollectorConfig) Options {
	return Options{
		PageSize:         cfg.PageSize,
		BatchSize:        cfg.BatchSize,
		ReplyConcurrency: cfg.ReplyConcurrency,
		Table:            cfg.Table,
	}
}

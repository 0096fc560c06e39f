package config

import "go.uber.org/zap"

// Print registra la configuración efectiva sin exponer secretos.
func (c Config) Print(logger *zap.Logger) {
	if logger == nil {
		return
	}
	logger.Info("environment",
		zap.String("node_env", c.NodeEnv),
		zap.String("http_port", c.HTTPPort),
		zap.String("auth_secret", maskSecret(c.AuthSecret)),
		zap.String("auth_url", c.AuthURL),
		zap.Bool("trust_host", c.TrustHost.Bool()),
		zap.Strings("trusted_proxies", c.TrustedProxies),
		zap.Bool("google_oauth", c.GoogleConfigured()),
		zap.Bool("redis", c.RedisAddr != ""),
		zap.Bool("rate_limit_enabled", c.RateLimitEnabled.Bool()),
		zap.Int("rate_limit_max_requests", c.RateLimitMaxRequests),
		zap.Duration("rate_limit_window", c.RateLimitWindow()),
		zap.Bool("analytics_enabled", c.AnalyticsEnabled.Bool()),
		zap.String("analytics_backend", c.AnalyticsBackend),
		zap.String("log_level", c.LogLevel),
		zap.String("log_format", c.LogFormat),
		zap.Duration("db_query_timeout", c.QueryTimeout()),
		zap.Duration("cache_ttl", c.CacheTTL()),
		zap.Bool("performance_monitoring", c.PerformanceMonitoring.Bool()),
		zap.Duration("slow_query_threshold", c.SlowQueryThreshold()),
	)
}

func maskSecret(secret string) string {
	switch secret {
	case "":
		return "(empty)"
	case InsecureSecretPlaceholder:
		return "(development placeholder)"
	}
	return "(set)"
}

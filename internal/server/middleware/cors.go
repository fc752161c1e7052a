package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"seequence/internal/config"
)

// CORS 跨域中间件
// 精确匹配配置的 origins，origin_regex 额外支持正则（如通配本地端口）
func CORS(cfg *config.CORSConfig) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(cfg.Origins))
	for _, origin := range cfg.Origins {
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	var originRe *regexp.Regexp
	if cfg.OriginRegex != "" {
		re, err := regexp.Compile(cfg.OriginRegex)
		if err != nil {
			log.Warn().Err(err).Str("pattern", cfg.OriginRegex).Msg("invalid CORS origin regex, ignored")
		} else {
			originRe = re
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			_, ok := allowed[origin]
			if allowAll {
				ok = true
			}
			if !ok && originRe != nil {
				ok = originRe.MatchString(origin)
			}
			if ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				c.Header("Access-Control-Max-Age", "86400")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

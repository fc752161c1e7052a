package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New 生成新的UUID（string格式）
func New() string {
	return uuid.New().String()
}

// Short 生成短随机后缀（uuid 前6位，用于文件名防撞）
func Short() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
}

// AssetFilename 生成防撞的资源文件名：<stem>_<纳秒时间戳>_<短随机后缀>.<ext>
// stem 会被清洗为只含字母数字、'-'、'_' 的安全形式（最长80字符）
func AssetFilename(stem, ext string) string {
	return fmt.Sprintf("%s_%d_%s.%s", SanitizeStem(stem), time.Now().UnixNano(), Short(), ext)
}

// SanitizeStem 清洗文件名主干，替换不安全字符为下划线
func SanitizeStem(stem string) string {
	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := b.String()
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}

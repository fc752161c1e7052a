package story

import "fmt"

// MalformedOutputError 模型返回无法解析为结构化数据（子串提取也失败）
// 对单次调用是致命错误
type MalformedOutputError struct {
	Sample string // 原始返回的截断样本
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("model returned non-JSON output: %s", e.Sample)
}

// newMalformedOutputError 创建解析失败错误，样本截断到200字符
func newMalformedOutputError(raw string) *MalformedOutputError {
	sample := raw
	if len(sample) > 200 {
		sample = sample[:200]
	}
	return &MalformedOutputError{Sample: sample}
}

package imagegen

import "fmt"

// BillingCreditError 图片服务计费/额度耗尽
// 终态错误：不重试、不吞掉，必须在边界上与普通失败区分
type BillingCreditError struct {
	Msg string
}

func (e *BillingCreditError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "image provider billing: insufficient credit"
}

// UnrecognizedResponseError 服务响应形状无法提取出可用结果
type UnrecognizedResponseError struct {
	Shape string // 观测到的响应形状描述
}

func (e *UnrecognizedResponseError) Error() string {
	return fmt.Sprintf("unexpected provider output format: %s", e.Shape)
}

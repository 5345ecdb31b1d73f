package models

import "fmt"

// ConfigError means the provider configuration is missing or unusable.
// It is surfaced immediately and never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "配置错误: " + e.Reason
}

// Network failure causes, used to pick the right diagnostic.
const (
	NetworkCauseTimeout    = "timeout"
	NetworkCauseConnection = "connection"
)

// NetworkError is a timeout or connection failure that survived the
// retry budget. Error() is a short line; Diagnostic() is the full
// human-actionable text shown to the user.
type NetworkError struct {
	Cause    string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("网络错误(%s): %d 次尝试后失败: %v", e.Cause, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Diagnostic() string {
	if e.Cause == NetworkCauseTimeout {
		return `⏰ 请求超时 (60秒)

可能原因：
• AI服务器响应较慢
• 网络连接不稳定

解决方案：
1. 稍等片刻后重试
2. 检查网络连接
3. 简化问题内容`
	}
	return `🌐 网络连接失败

可能原因：
• 网络连接中断
• API服务器不可达

解决方案：
1. 检查网络连接状态
2. 确认API地址配置正确
3. 稍后重试`
}

// ProviderError is a non-2xx HTTP answer that carried a body.
// Only 5xx responses are worth retrying.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("API请求失败: %d %s", e.Status, e.Message)
}

func (e *ProviderError) Retryable() bool { return e.Status >= 500 }

// ParseError means the model responded but no valid questions came out.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "未能生成有效的学习问题: " + e.Reason
}

// ValidationError rejects payment or entitlement input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ReplayError rejects a payment order id that was already consumed.
type ReplayError struct {
	OrderID string
}

func (e *ReplayError) Error() string {
	return "此订单号已经使用过，请勿重复验证: " + e.OrderID
}

package types

// 组件健康状态.
const (
	HealthOK        = "ok"
	HealthUnhealthy = "unhealthy"
	HealthDisabled  = "disabled"
)

// ComponentHealth 单个依赖的检查结果.
type ComponentHealth struct {
	Component string            `json:"component"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// HealthReport 汇总检查结果.
type HealthReport struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}

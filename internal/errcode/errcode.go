package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：业务可恢复/告警类错误（例如资源缺失、内容放不下一页，但流程可继续）
// - 5xxx：系统错误（需要中断流程）
const (
	OK                   = 0
	ResourceMissing      = 4004
	InsufficientText     = 4010
	OverflowAtMaxDensity = 4020
	PersistenceFailed    = 4030
	SystemError          = 5000
	UpstreamFailed       = 5020
)

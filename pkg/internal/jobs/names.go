package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobDescriptorStats = "paste.descriptor_stats"
	JobStorageProbe    = "storage.probe"
)

// Cron 表达式常量.
const (
	CronDescriptorStats = "*/5 * * * *"
	CronStorageProbe    = "* * * * *"
)

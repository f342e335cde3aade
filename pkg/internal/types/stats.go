package types

// PasteStats 管理端的描述符统计快照.
type PasteStats struct {
	Total     int64           `json:"total"`
	Bytes     int64           `json:"bytes"`
	Protected int64           `json:"protected"`
	Skipped   int64           `json:"skipped"`
	ByType    []PasteStatsRow `json:"by_type"`
}

// PasteStatsRow 按类型与状态聚合的一行.
type PasteStatsRow struct {
	Type  string `json:"type"`
	State string `json:"state"`
	Count int64  `json:"count"`
}

package types

// StatsResponse 注册表总体统计.
type StatsResponse struct {
	TotalApps             int64 `json:"total_apps"`
	TotalVersions         int64 `json:"total_versions"`
	TotalStorageBytes     int64 `json:"total_storage_bytes"`
	AppsWithActiveVersion int64 `json:"apps_with_active_version"`
	// RecentUploads 最近 7 天的上传次数，按审计日志统计
	RecentUploads int64 `json:"recent_uploads"`
}

// Package queue 定义消息主题常量与分组，供发布/订阅使用.
package queue

// 主题命名规范：fv.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：app(应用)、version(版本)、file(文件访问)、audit(审计)
// 动作/状态：created/updated/deleted/uploaded/activated/served/recorded

const (
	// 应用领域.
	TopicAppCreated = "fv.app.created" // 新应用注册完成
	TopicAppUpdated = "fv.app.updated" // 应用元数据更新
	TopicAppDeleted = "fv.app.deleted" // 应用及其全部版本删除完成

	// 版本领域.
	TopicVersionUploaded  = "fv.version.uploaded"  // 版本上传并成为活跃版本
	TopicVersionActivated = "fv.version.activated" // 活跃版本切换
	TopicVersionDeleted   = "fv.version.deleted"   // 非活跃版本删除完成

	// 文件访问领域.
	TopicFileServed = "fv.file.served" // 版本文件被下载

	// 审计领域.
	TopicAuditRecorded = "fv.audit.recorded" // 审计事件待落库
)

// 主题分组，用于批量订阅.
var (
	// 应用相关主题集合.
	AppTopics = []string{TopicAppCreated, TopicAppUpdated, TopicAppDeleted}

	// 版本相关主题集合.
	VersionTopics = []string{TopicVersionUploaded, TopicVersionActivated, TopicVersionDeleted}
)

package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishVersionUploaded 发布 fv.version.uploaded 事件。
// 用于版本文件写入存储并成为活跃版本后，通知下游流程（缓存失效、统计等）。
func PublishVersionUploaded(pub message.Publisher, payload VersionUploadedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicVersionUploaded, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicVersionUploaded, msg)
}

// ParseVersionUploaded 将 Watermill 消息解析为强类型 Envelope（VersionUploadedPayload）。
func ParseVersionUploaded(msg *message.Message) (Message[VersionUploadedPayload], error) {
	return ParseWatermillMessage[VersionUploadedPayload](msg)
}

// PublishAuditRecorded 发布 fv.audit.recorded 事件，审计写入由订阅端异步完成。
func PublishAuditRecorded(pub message.Publisher, payload AuditRecordedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAuditRecorded, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicAuditRecorded, msg)
}

// ParseAuditRecorded 将 Watermill 消息解析为强类型 Envelope（AuditRecordedPayload）。
func ParseAuditRecorded(msg *message.Message) (Message[AuditRecordedPayload], error) {
	return ParseWatermillMessage[AuditRecordedPayload](msg)
}

package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldUID 用户 ID 字段
	FieldUID = "uid"

	// FieldNoteID 笔记 ID 字段
	FieldNoteID = "noteId"

	// FieldVersionID 版本 ID 字段
	FieldVersionID = "versionId"

	// FieldConflictID 冲突 ID 字段
	FieldConflictID = "conflictId"

	// FieldDeviceID 设备 ID 字段
	FieldDeviceID = "deviceId"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldStrategy 冲突解决策略字段
	FieldStrategy = "strategy"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldSessionID 会话 ID 字段
	FieldSessionID = "sessionId"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldError 错误信息字段
	FieldError = "error"

	// FieldTask 任务名称字段
	FieldTask = "task"

	// FieldStorage 存储后端字段
	FieldStorage = "storage"

	// FieldBucket 存储桶字段
	FieldBucket = "bucket"

	// FieldFileKey 存储对象键字段
	FieldFileKey = "fileKey"
)

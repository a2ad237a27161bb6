package code

// Success family, status true
// 成功状态码族，status 为 true
var (
	Success         = NewSuss(1, lang{en: "Success", zh_cn: "成功"})
	SuccessCreate   = NewSuss(2, lang{en: "Created successfully", zh_cn: "创建成功"})
	SuccessUpdate   = NewSuss(3, lang{en: "Updated successfully", zh_cn: "更新成功"})
	SuccessNoUpdate = NewSuss(4, lang{en: "Already up to date", zh_cn: "已是最新，无需更新"})
	SuccessDelete   = NewSuss(5, lang{en: "Deleted successfully", zh_cn: "删除成功"})
)

// Server and infrastructure errors 100000xx
// 服务器与基础设施错误 100000xx
var (
	ErrorServerInternal  = NewError(10000000, lang{en: "Internal server error", zh_cn: "服务内部错误"})
	ErrorInvalidParams   = NewError(10000001, lang{en: "Invalid request parameters", zh_cn: "请求参数错误"})
	ErrorNotFoundAPI     = NewError(10000002, lang{en: "API route not found", zh_cn: "接口地址不存在"})
	ErrorTooManyRequests = NewError(10000003, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorRequestTimeout  = NewError(10000004, lang{en: "Request timed out", zh_cn: "请求超时"})
	ErrorDBQuery         = NewError(10000005, lang{en: "Database query failed", zh_cn: "数据库查询失败"})
)

// Auth and user errors 200100xx
// 认证与用户错误 200100xx
var (
	ErrorNotUserAuthToken     = NewError(20010000, lang{en: "Auth token is missing", zh_cn: "鉴权 Token 缺失"})
	ErrorInvalidUserAuthToken = NewError(20010001, lang{en: "Auth token is invalid or expired", zh_cn: "鉴权 Token 无效或已过期"})
	ErrorTokenGenerate        = NewError(20010002, lang{en: "Failed to generate auth token", zh_cn: "生成鉴权 Token 失败"})
	ErrorUserNotFound         = NewError(20010003, lang{en: "User does not exist", zh_cn: "用户不存在"})
	ErrorUserAlreadyExists    = NewError(20010004, lang{en: "User already exists", zh_cn: "用户已存在"})
	ErrorUserLoginFailed      = NewError(20010005, lang{en: "Incorrect email or password", zh_cn: "邮箱或密码错误"})
	ErrorPasswordNotValid     = NewError(20010006, lang{en: "Password does not meet requirements", zh_cn: "密码不符合要求"})
	ErrorUserRegisterClosed   = NewError(20010007, lang{en: "Registration is closed", zh_cn: "注册已关闭"})
	ErrorUserIsNotAdmin       = NewError(20010008, lang{en: "Administrator privileges required", zh_cn: "需要管理员权限"})
	ErrorInvalidAuthToken     = NewError(20010009, lang{en: "Access token is invalid", zh_cn: "访问 Token 无效"})
)

// Note, version and history errors 300100xx
// 笔记、版本与历史错误 300100xx
var (
	ErrorNoteNotFound        = NewError(30010000, lang{en: "Note does not exist", zh_cn: "笔记不存在"})
	ErrorNoteAccessDenied    = NewError(30010001, lang{en: "No permission to access this note", zh_cn: "无权访问该笔记"})
	ErrorVersionNotFound     = NewError(30010002, lang{en: "Note version does not exist", zh_cn: "笔记版本不存在"})
	ErrorVersionCreateFailed = NewError(30010003, lang{en: "Failed to create note version", zh_cn: "创建笔记版本失败"})
	ErrorHistoryQueryFailed  = NewError(30010004, lang{en: "Failed to query note history", zh_cn: "查询笔记历史失败"})
	ErrorShareTargetNotFound = NewError(30010005, lang{en: "Share target user does not exist", zh_cn: "分享目标用户不存在"})
	ErrorShareAlreadyExists  = NewError(30010006, lang{en: "Note is already shared with this user", zh_cn: "笔记已分享给该用户"})
)

// Conflict errors 400100xx
// 冲突错误 400100xx
var (
	ErrorConflictNotFound        = NewError(40010000, lang{en: "Conflict does not exist", zh_cn: "冲突不存在"})
	ErrorConflictAlreadyResolved = NewError(40010001, lang{en: "Conflict has already been resolved", zh_cn: "冲突已被解决"})
	ErrorConflictStrategyUnknown = NewError(40010002, lang{en: "Unknown resolution strategy", zh_cn: "未知的冲突解决策略"})
	ErrorMergeContentRequired    = NewError(40010003, lang{en: "Manual merge requires title and body", zh_cn: "手动合并需要提供标题和正文"})
	ErrorConflictResolveFailed   = NewError(40010004, lang{en: "Failed to resolve conflict", zh_cn: "解决冲突失败"})
)

// Storage and backup errors 500100xx
// 存储与备份错误 500100xx
var (
	ErrorInvalidStorageType  = NewError(50010000, lang{en: "Invalid storage type", zh_cn: "无效的存储类型"})
	ErrorStorageNotEnabled   = NewError(50010001, lang{en: "Storage backend is not enabled", zh_cn: "存储后端未启用"})
	ErrorBackupExecuteFailed = NewError(50010002, lang{en: "Backup execution failed", zh_cn: "备份执行失败"})
)

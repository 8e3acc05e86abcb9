package errors

import stderrors "errors"

// 业务错误码。录音/合成/转写流水线的所有失败出口都落在这里，
// handler 层据此映射 HTTP 状态。
const (
	CodeUnauthorized         = 1001 // 无会话
	CodeValidation           = 1002 // 字段缺失、格式不允许、文件过大
	CodePermissionDenied     = 1003 // 麦克风等设备权限被拒
	CodeConversionFailed     = 1004 // MP3 转码失败（严格策略）
	CodeUploadFailed         = 1005 // 对象存储写入失败
	CodeProvider             = 1006 // 第三方服务出错或返回缺字段
	CodeTranscriptionTimeout = 1007 // 转写 30 秒超时
	CodeNotFound             = 1008 // 引用的声音不存在
	CodeForbidden            = 1009 // 访问他人的私有声音
)

// IsCode reports whether err carries the given business code
func IsCode(err error, code int) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the business code of err, or 0 for plain errors
func CodeOf(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}

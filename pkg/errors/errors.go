package errors

import (
	"errors"
	"fmt"
)

// AppError 应用错误类型
// 用于统一管理业务错误，包含错误码和错误消息
type AppError struct {
	Code    int    // 错误码
	Message string // 客户端可见的错误消息
	Err     error  // 原始错误（可选，用于调试）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 创建新错误
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装原始错误
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Is 判断是否为指定错误
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode 获取错误码，如果不是 AppError 返回默认错误码
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

// IsProtocolViolation 是否为客户端协议错误（只回复给操作者，不广播）
func IsProtocolViolation(err error) bool {
	code := GetCode(err)
	return code >= 10000 && code < 50000
}

// ============== 错误码定义 ==============

const (
	CodeSuccess = 0

	// 身份相关 10000-10999
	CodeUnauthorized = 10001
	CodeTokenInvalid = 10003
	CodeTokenExpired = 10004

	// 参数相关 11000-11999
	CodeInvalidParams = 11002

	// 房间相关 20000-20499
	CodeRoomNotFound      = 20001
	CodeRoomFull          = 20002
	CodeNotInRoom         = 20003
	CodeGameInProgress    = 20004
	CodeGameNotInProgress = 20005
	CodeNotEnoughPlayers  = 20006

	// 出牌相关 20500-20999
	CodeNotYourTurn  = 20501
	CodeInvalidSlot  = 20502
	CodeTileMismatch = 20503

	// 系统错误 50000-50999
	CodeServerError        = 50001
	CodeDBError            = 50002
	CodeHistoryUnavailable = 50003
	CodeInvariantViolation = 50010
)

// ============== 预定义错误 ==============

// 身份相关
var (
	ErrUnauthorized = NewError(CodeUnauthorized, "player identity required")
	ErrTokenInvalid = NewError(CodeTokenInvalid, "token is invalid")
	ErrTokenExpired = NewError(CodeTokenExpired, "token has expired")
)

// 参数相关
var (
	ErrInvalidParams = NewError(CodeInvalidParams, "invalid parameters")
)

// 房间相关
var (
	ErrRoomNotFound      = NewError(CodeRoomNotFound, "room not found")
	ErrRoomFull          = NewError(CodeRoomFull, "room is full")
	ErrNotInRoom         = NewError(CodeNotInRoom, "player is not seated in this room")
	ErrGameInProgress    = NewError(CodeGameInProgress, "game already in progress")
	ErrGameNotInProgress = NewError(CodeGameNotInProgress, "no game in progress")
	ErrNotEnoughPlayers  = NewError(CodeNotEnoughPlayers, "four players are required")
)

// 出牌相关
var (
	ErrNotYourTurn  = NewError(CodeNotYourTurn, "not your turn")
	ErrInvalidSlot  = NewError(CodeInvalidSlot, "hand slot out of range")
	ErrTileMismatch = NewError(CodeTileMismatch, "tile does not match hand slot")
)

// 系统相关
var (
	ErrServerError        = NewError(CodeServerError, "internal server error")
	ErrDBError            = NewError(CodeDBError, "database error")
	ErrHistoryUnavailable = NewError(CodeHistoryUnavailable, "game history is not enabled")
	ErrInvariantViolation = NewError(CodeInvariantViolation, "game state invariant violated")
)

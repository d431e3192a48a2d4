package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "sudooom.mahjong/pkg/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    apperrors.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// ErrorFromAppError 从 AppError 生成错误响应，HTTP 状态码按错误码映射
func ErrorFromAppError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	message := apperrors.GetMessage(err)
	if !apperrors.IsProtocolViolation(err) && code != apperrors.CodeHistoryUnavailable {
		code = apperrors.CodeServerError
		message = apperrors.ErrServerError.Message
	}
	c.JSON(statusOf(code), Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ErrorWithMsg 自定义错误消息
func ErrorWithMsg(c *gin.Context, code int, message string) {
	c.JSON(statusOf(code), Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

func statusOf(code int) int {
	switch code {
	case apperrors.CodeRoomNotFound:
		return http.StatusNotFound
	case apperrors.CodeUnauthorized, apperrors.CodeTokenInvalid, apperrors.CodeTokenExpired:
		return http.StatusUnauthorized
	case apperrors.CodeInvalidParams:
		return http.StatusBadRequest
	case apperrors.CodeHistoryUnavailable:
		return http.StatusServiceUnavailable
	}
	if code >= 50000 {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: message, Data: data})
}

// Created 资源创建成功
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: message, Data: data})
}

// Fail 失败响应（HTTP 200，业务码非 0）
func Fail(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 1, Message: message, Data: data})
}

// FailWithStatus 指定 HTTP 状态码的失败响应
func FailWithStatus(c *gin.Context, status, code int, message string) {
	c.JSON(status, Response{Code: code, Message: message})
}

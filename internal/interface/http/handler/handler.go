// Package handler HTTP处理器
// Handler只负责HTTP相关的事情:解析请求、调用应用层、返回响应,业务逻辑在domain和application层
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookshelf/pkg/response"
	"github.com/xiebiao/bookshelf/pkg/validator"
)

// bindFailed 参数绑定或校验失败
func bindFailed(c *gin.Context, err error) {
	response.Error(c, validator.Translate(err))
}

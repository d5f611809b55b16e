package handler

import (
	"Parlor/internal/pkg/response"
	"Parlor/internal/pkg/util"
	"Parlor/internal/repository"
	"Parlor/internal/service"
	"errors"
	log "log/slog"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindJSON 绑定并校验请求体，失败时已写出响应
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			response.Error(c, err)
			return false
		}
		log.WarnContext(c.Request.Context(), "bind request body failed", "err", err)
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return false
	}
	if err := util.ValidateDTO(obj); err != nil {
		response.Error(c, err)
		return false
	}
	return true
}

func currentUser(c *gin.Context) string {
	return c.GetString("user_id")
}

// pageOf 读取 ?page=&limit=，非法值按缺省处理
func pageOf(c *gin.Context) repository.Page {
	return repository.NewPage(c.Query("page"), c.Query("limit"))
}

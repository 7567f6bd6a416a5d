package api

import (
	"errors"

	"palmera/config"
	"palmera/logger"
	"palmera/service"
	"palmera/session"
	"palmera/store"

	"github.com/gin-gonic/gin"
)

// 通用提示
const (
	msgInternal   = "Ha ocurrido un error. Inténtalo de nuevo."
	msgNotFound   = "Registro no encontrado."
	msgDuplicate  = "Ya existe un registro con esos datos."
	msgBadRequest = "Datos de la solicitud no válidos."
	msgInvalid    = "Revisa los campos marcados."
	msgCents      = "El importe admite como máximo dos decimales."
)

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情，避免信息泄露
func SafeErrorMessage(err error, fallback string) string {
	return config.SafeErrorMessage(err, fallback)
}

// respondError 将领域错误映射为 HTTP 响应
// 记录不存在与不属于当前用户同样返回 404
func respondError(c *gin.Context, err error, fallback string) {
	var fields service.FieldErrors
	switch {
	case errors.As(err, &fields):
		Unprocessable(c, msgInvalid, fields)
	case errors.Is(err, store.ErrNotFound):
		NotFound(c, msgNotFound)
	case errors.Is(err, store.ErrDuplicate):
		Conflict(c, msgDuplicate)
	case errors.Is(err, session.ErrWeakPassword):
		msg, _ := session.Message(err)
		Unprocessable(c, msg, map[string]string{"password": msg})
	case errors.Is(err, session.ErrPasswordMismatch):
		msg, _ := session.Message(err)
		Unprocessable(c, msg, map[string]string{"confirm_password": msg})
	case errors.Is(err, session.ErrInactiveUser):
		msg, _ := session.Message(err)
		Forbidden(c, msg)
	default:
		if msg, ok := session.Message(err); ok {
			Unauthorized(c, msg)
			return
		}
		log := logger.Get()
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg(fallback)
		InternalError(c, SafeErrorMessage(err, msgInternal))
	}
}

// bindError 400，调试模式下附带绑定错误详情
func bindError(c *gin.Context, err error) {
	BadRequest(c, SafeErrorMessage(err, msgBadRequest))
}

package controller

import (
	"errors"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var kindStatus = map[service.ErrorKind]int{
	service.KindNotFound:      http.StatusNotFound,
	service.KindInvalidState:  http.StatusConflict,
	service.KindLimitExceeded: http.StatusForbidden,
	service.KindConflict:      http.StatusConflict,
	service.KindValidation:    http.StatusBadRequest,
	service.KindTransient:     http.StatusServiceUnavailable,
	service.KindUnauthorized:  http.StatusUnauthorized,
	service.KindForbidden:     http.StatusForbidden,
}

// respondError 业务错误按类别映射 HTTP 状态码，其余按 500 处理并记录日志
func respondError(ctx *gin.Context, err error) {
	var e *service.Error
	if !errors.As(err, &e) {
		util.LogInternalError(ctx, err)
		return
	}
	status, ok := kindStatus[e.Kind]
	if !ok {
		util.LogInternalError(ctx, err)
		return
	}
	if e.Kind == service.KindTransient {
		logger.Log.Error("Storage unavailable", zap.String("path", ctx.FullPath()), zap.Error(err))
	}
	util.ErrorWithCode(ctx, status, e.Code, e.Message)
}

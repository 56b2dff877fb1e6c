package middleware

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IdentityResolver interface {
	ResolveUser(ctx context.Context, credential string) (*service.Identity, error)
}

// AuthMiddleware 解析 Bearer 令牌；无效凭证 401，停用账号 403
func AuthMiddleware(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		identity, err := resolver.ResolveUser(c.Request.Context(), tokenString)
		if err != nil {
			if service.KindOf(err) == service.KindTransient {
				util.LogInternalError(c, err)
				c.Abort()
				return
			}
			logger.Log.Debug("JWT rejected", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if !identity.IsActive {
			util.ErrorWithCode(c, http.StatusForbidden, service.ErrInactiveUser.Code, service.ErrInactiveUser.Message)
			c.Abort()
			return
		}

		c.Set(util.ContextIdentity, identity)
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if identity == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			// 管理员直接放行
			if identity.Role == model.Admin || identity.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) *service.Identity {
	v, exists := c.Get(util.ContextIdentity)
	if !exists {
		return nil
	}
	identity, ok := v.(*service.Identity)
	if !ok {
		return nil
	}
	return identity
}

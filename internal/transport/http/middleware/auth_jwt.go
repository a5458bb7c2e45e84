package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storeapi/internal/domain"
	resp "storeapi/internal/transport/http/response"
)

const keyUser = "user"

// Resolver 把 access token 解析成当前用户，失败返回 *domain.AuthError
type Resolver interface {
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
}

// AuthJWT 鉴权失败时直接终止，后续 handler 不会执行
func AuthJWT(r Resolver, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "Not authenticated")
			return
		}
		u, err := r.CurrentUser(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				l.Debug("bearer rejected",
					zap.String("rid", c.GetString(KeyRequestID)),
					zap.String("reason", err.Error()),
					zap.NamedError("cause", errors.Unwrap(err)),
				)
				unauthorized(c, err.Error())
				return
			}
			_ = c.Error(err)
			l.Error("resolve current user", zap.String("rid", c.GetString(KeyRequestID)), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, ""))
			return
		}
		c.Set(keyUser, u)
		c.Next()
	}
}

// CurrentUser 只能在 AuthJWT 之后的 handler 里调用
func CurrentUser(c *gin.Context) *domain.User {
	u, _ := c.MustGet(keyUser).(*domain.User)
	return u
}

func bearer(h string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(resp.CodeUnauthorized, msg))
}

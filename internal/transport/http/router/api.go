package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storeapi/internal/core/config"
	"storeapi/internal/core/server"
	"storeapi/internal/feature/post"
	"storeapi/internal/feature/user"
	httpez "storeapi/internal/transport/http/ez"
	mdw "storeapi/internal/transport/http/middleware"
)

const apiPrefix = "/api/v1"

// Uploader 由 storage.Uploader 实现；未启用时返回 storage.ErrDisabled
type Uploader interface {
	Upload(ctx context.Context, localPath, name string) (string, error)
}

type Deps struct {
	Log      *zap.Logger
	Users    *user.Service
	Posts    *post.Service
	Uploader Uploader
	HTTP     config.HTTP

	// PublicURL 对外地址（如 https://api.example.com），用于邮件里的链接；为空时按请求还原
	PublicURL string
}

func NewAPIEngine(d Deps) *gin.Engine {
	l := d.Log
	h := withDefaults(d.HTTP)
	r := server.NewRouter(l)

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.ConcurrencyLimit(h.MaxInFlight),
		mdw.MaxBodyBytes(h.MaxBodyMB<<20),
		mdw.Timeout(time.Duration(h.RequestTimeout)*time.Second),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)
	httpez.RegisterValidators()

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group(apiPrefix)

	// 鉴权分组：认证失败在中间件里终止，handler 不会执行
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.Users, l))

	MountAll(api, authed,
		userActions{users: d.Users, links: links{public: d.PublicURL}, log: l},
		postActions{posts: d.Posts, links: links{public: d.PublicURL}, log: l},
		uploadAction{uploader: d.Uploader, log: l},
	)
	return r
}

func withDefaults(h config.HTTP) config.HTTP {
	if h.MaxInFlight <= 0 {
		h.MaxInFlight = 300
	}
	if h.MaxBodyMB <= 0 {
		h.MaxBodyMB = 16
	}
	if h.RequestTimeout <= 0 {
		h.RequestTimeout = 10
	}
	return h
}

// links 拼确认链接和帖子地址。
// 配了 public 就只用它；Host 和 X-Forwarded-Proto 由客户端控制，只在本地开发时兜底。
type links struct {
	public string
}

func (k links) base(c *gin.Context) string {
	if k.public != "" {
		return strings.TrimRight(k.public, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := c.GetHeader("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + c.Request.Host
}

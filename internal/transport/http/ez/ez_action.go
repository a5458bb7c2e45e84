package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storeapi/internal/core/auth"
	"storeapi/internal/domain"
	mdw "storeapi/internal/transport/http/middleware"
	resp "storeapi/internal/transport/http/response"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ { return EZ{g: g, log: l} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindURI   Binder = "uri"   // 从路径参数 /:id 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / c.PostForm 取
)

// 统一错误对象（配合 resp.Error(int, msg)）
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error    { return &AErr{Code: http.StatusBadRequest, Msg: msg} }
func NotFound(msg string) error      { return &AErr{Code: http.StatusNotFound, Msg: msg} }
func Unprocessable(msg string) error { return &AErr{Code: http.StatusUnprocessableEntity, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "DELETE"
	Path    string // 例："/token"、"/post/:id"
	Binder  Binder
	Status  int // 成功时的 HTTP 状态，默认 200
	Handler func(c *gin.Context, in *I) (O, error)
}

// 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		// 1) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindURI:
			bindErr = c.ShouldBindUri(&in)
		default: // BindNone: 不绑定
		}
		if bindErr != nil && mdw.IsBodyTooLarge(bindErr) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp.Error(resp.CodeRequestTooLarge, "request body too large"))
			return
		}
		if bindErr != nil {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, resp.Error(resp.CodeUnprocessable, bindErr.Error()))
			return
		}

		// 2) 执行
		out, err := a.Handler(c, &in)
		if err != nil {
			Fail(c, e.log, err)
			return
		}
		c.JSON(status, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

// Fail 统一错误映射：领域错误 → HTTP 状态；未知错误只回通用文案，原因写日志
func Fail(c *gin.Context, l *zap.Logger, err error) {
	var ae *AErr
	switch {
	case errors.As(err, &ae):
		if ae.Code >= http.StatusInternalServerError {
			logInternal(c, l, err)
		}
		c.AbortWithStatusJSON(ae.Code, resp.Error(ae.Code, ae.Error()))
	case errors.Is(err, domain.ErrUnauthorized):
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(resp.CodeUnauthorized, err.Error()))
	case errors.Is(err, domain.ErrPostNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, "Post not found"))
	case errors.Is(err, auth.ErrPasswordTooLong), errors.Is(err, auth.ErrEmptyPassword):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, resp.Error(resp.CodeUnprocessable, err.Error()))
	case errors.Is(err, domain.ErrUserExists):
		c.AbortWithStatusJSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, "A user with that email already exists"))
	default:
		logInternal(c, l, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, ""))
	}
}

func logInternal(c *gin.Context, l *zap.Logger, err error) {
	_ = c.Error(err)
	l.Error("request failed",
		zap.String("rid", c.GetString(mdw.KeyRequestID)),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
}

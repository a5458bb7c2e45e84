package router

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storeapi/internal/domain"
	"storeapi/internal/feature/user"
	httpez "storeapi/internal/transport/http/ez"
	mdw "storeapi/internal/transport/http/middleware"
)

type credentialsIn struct {
	Email    string `json:"email"    binding:"required,email,max=191"`
	Password string `json:"password" binding:"required,pwbytes"`
}

type detailOut struct {
	Detail string `json:"detail"`
}

type tokenOut struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type confirmIn struct {
	Token string `uri:"token" binding:"required"`
}

type userActions struct {
	users *user.Service
	links links
	log   *zap.Logger
}

func (userActions) Priority() int { return 10 }

func (a userActions) Mount(pub, authed *gin.RouterGroup) {
	ezPublic := httpez.New(pub, a.log)
	ezAuth := httpez.New(authed, a.log)

	// POST /register：创建未确认用户，确认邮件在后台发送
	httpez.RegisterAction(ezPublic, httpez.Action[credentialsIn, detailOut]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *credentialsIn) (detailOut, error) {
			base := a.links.base(c)
			_, err := a.users.Register(c.Request.Context(), in.Email, in.Password, func(token string) string {
				return base + apiPrefix + "/confirm/" + url.PathEscape(token)
			})
			if err != nil {
				return detailOut{}, err
			}
			return detailOut{Detail: "User created. Please confirm your email."}, nil
		},
	})

	// POST /token：三种登录失败返回同一个 401
	httpez.RegisterAction(ezPublic, httpez.Action[credentialsIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/token",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *credentialsIn) (tokenOut, error) {
			tok, err := a.users.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return tokenOut{}, err
			}
			return tokenOut{AccessToken: tok, TokenType: "bearer"}, nil
		},
	})

	httpez.RegisterAction(ezPublic, httpez.Action[confirmIn, detailOut]{
		Method: http.MethodGet,
		Path:   "/confirm/:token",
		Binder: httpez.BindURI,
		Handler: func(c *gin.Context, in *confirmIn) (detailOut, error) {
			if err := a.users.Confirm(c.Request.Context(), in.Token); err != nil {
				return detailOut{}, err
			}
			return detailOut{Detail: "User confirmed"}, nil
		},
	})

	httpez.RegisterAction(ezAuth, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return mdw.CurrentUser(c), nil
		},
	})
}

package ez

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storeapi/internal/core/auth"
	"storeapi/internal/domain"
	resp "storeapi/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

func TestFail_MapsErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"action error", NotFound("nope"), http.StatusNotFound, "nope"},
		{"unauthorized", domain.Unauthorized("Token has expired", auth.ErrTokenExpired), http.StatusUnauthorized, "Token has expired"},
		{"post missing", fmt.Errorf("check post 9: %w", domain.ErrPostNotFound), http.StatusNotFound, "Post not found"},
		{"user exists", domain.ErrUserExists, http.StatusBadRequest, "A user with that email already exists"},
		{"password too long", fmt.Errorf("register: %w", auth.ErrPasswordTooLong), http.StatusUnprocessableEntity, "register: password must be at most 72 bytes"},
		{"unknown", errors.New("pq: connection reset"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Fail(c, zap.NewNop(), tc.err)

			assert.Equal(t, tc.status, w.Code)
			var out resp.Resp
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
			assert.Equal(t, tc.status, out.Code)
			assert.Equal(t, tc.msg, out.Msg)
		})
	}
}

func TestRegisterAction_PasswordBytes(t *testing.T) {
	RegisterValidators()
	type in struct {
		Password string `json:"password" binding:"required,pwbytes"`
	}
	r := gin.New()
	e := New(r.Group(""), zap.NewNop())
	RegisterAction(e, Action[in, string]{
		Method:  http.MethodPost,
		Path:    "/pw",
		Binder:  BindJSON,
		Handler: func(*gin.Context, *in) (string, error) { return "ok", nil },
	})

	post := func(pw string) int {
		body, _ := json.Marshal(map[string]string{"password": pw})
		req := httptest.NewRequest(http.MethodPost, "/pw", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post(strings.Repeat("a", auth.MaxPasswordBytes)))
	assert.Equal(t, http.StatusUnprocessableEntity, post(strings.Repeat("a", auth.MaxPasswordBytes+1)))
	// 字符数没超，字节数超了
	assert.Equal(t, http.StatusUnprocessableEntity, post(strings.Repeat("é", 70)))
}

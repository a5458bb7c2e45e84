package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	resp "storeapi/internal/transport/http/response"
)

// MaxBodyBytes 限制请求体大小，上传接口同样受限。
// handler 读超限后只需 c.Error(err) 不写响应，这里统一回 413。
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
		if c.Writer.Written() {
			return
		}
		for _, e := range c.Errors {
			if IsBodyTooLarge(e.Err) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp.Error(resp.CodeRequestTooLarge, "request body too large"))
				return
			}
		}
	}
}

func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

package ez

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"storeapi/internal/core/auth"
	"storeapi/internal/domain"
)

var registerOnce sync.Once

// RegisterValidators 给 gin 的 validator 挂自定义规则，多次调用只生效一次
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("postsort", func(fl validator.FieldLevel) bool {
			_, err := domain.ParsePostSort(fl.Field().String())
			return err == nil
		})
		// bcrypt 按字节截断，max=N 按字符计数拦不住多字节密码
		_ = v.RegisterValidation("pwbytes", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= auth.MaxPasswordBytes
		})
	})
}

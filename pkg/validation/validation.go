// Package validation 注册 gin 绑定使用的自定义校验规则，并提供 service 层复用的格式检查。
package validation

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	phoneCleaner = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

	std     *validator.Validate
	stdOnce sync.Once
)

// IsPhone 手机号格式：可选 + 前缀，8-15 位数字，允许空格、横线与括号分隔
func IsPhone(s string) bool {
	return phonePattern.MatchString(phoneCleaner.Replace(strings.TrimSpace(s)))
}

// IsEmail 邮箱格式（与绑定时的 email 规则一致）
func IsEmail(s string) bool {
	return standalone().Var(s, "required,email") == nil
}

// NotPast RFC3339 时间且不早于 now
func NotPast(s string, now time.Time) bool {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return false
	}
	return !t.Before(now)
}

// Register 在校验器上注册 phone、notpast 规则
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("notpast", func(fl validator.FieldLevel) bool {
		return NotPast(fl.Field().String(), time.Now())
	})
}

// RegisterGin 注册到 gin 默认绑定引擎
func RegisterGin() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return Register(v)
	}
	return nil
}

func standalone() *validator.Validate {
	stdOnce.Do(func() {
		std = validator.New()
		_ = Register(std)
	})
	return std
}

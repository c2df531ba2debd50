// Package validator 注册自定义校验tag到gin的binding引擎(go-playground/validator/v10)
//
//	type PublishBookRequest struct {
//	    ISBN  string `json:"isbn" binding:"required,isbn"`
//	    Genre string `json:"genre" binding:"omitempty,genres"`
//	}
//
// 启动时调用一次Register,之后ShouldBindJSON会自动执行这些校验。
package validator

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// MaxGenreLen 单个类型名称最大长度
const MaxGenreLen = 50

var registerOnce sync.Once

// Register 注册自定义tag,可重复调用
func Register() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("binding引擎不是validator/v10")
			return
		}
		err = RegisterOn(v)
	})
	return err
}

// RegisterOn 在指定Validate实例上注册自定义tag(测试中使用独立实例)
func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("isbn", func(fl validator.FieldLevel) bool {
		return IsISBN(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("genres", func(fl validator.FieldLevel) bool {
		return IsGenreList(fl.Field().String())
	})
}

// IsISBN 校验ISBN格式
// 支持ISBN-10(末位可以是X)和ISBN-13,允许中间带'-'或空格分隔,不校验校验位
func IsISBN(s string) bool {
	clean := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, s)

	switch len(clean) {
	case 10:
		for i, c := range clean {
			if c >= '0' && c <= '9' {
				continue
			}
			if i == 9 && (c == 'X' || c == 'x') {
				continue
			}
			return false
		}
		return true
	case 13:
		for _, c := range clean {
			if c < '0' || c > '9' {
				return false
			}
		}
		return true
	}
	return false
}

// IsGenreList 逗号分隔的类型列表:至少一个非空类型,每个不超过MaxGenreLen个字符
func IsGenreList(s string) bool {
	found := false
	for _, g := range strings.Split(s, ",") {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if len([]rune(g)) > MaxGenreLen {
			return false
		}
		found = true
	}
	return found
}

// Translate 把绑定/校验错误转换为AppError,消息中带出第一个失败字段
func Translate(err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.WrapCode(err, apperrors.ErrCodeBindError, apperrors.ErrBindError.Message)
	}

	fe := verrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s不能为空", fe.Field())
	case "isbn":
		msg = "ISBN格式不正确"
	case "genres":
		msg = "类型格式不正确(逗号分隔,每个不超过50个字符)"
	case "email":
		msg = "邮箱格式不正确"
	case "min", "max", "gte", "lte":
		msg = fmt.Sprintf("%s超出范围(%s=%s)", fe.Field(), fe.Tag(), fe.Param())
	default:
		msg = fmt.Sprintf("%s校验失败(%s)", fe.Field(), fe.Tag())
	}
	return apperrors.WrapCode(err, apperrors.ErrCodeInvalidParams, msg)
}

// Package rule 持有全局 go-playground/validator 实例，标签名为 rule，并注册粘贴相关的校验规则.
//
// gin 的绑定引擎与配置校验共用同一实例：
//
//	type CreateLargeRequest struct {
//		SHA256 string `json:"sha256" rule:"required,sha256hex"`
//		Expire string `json:"expire" rule:"omitempty,expire"`
//	}
package rule

import (
	"errors"
	"fmt"
	"mime"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const tagName = "rule"

var (
	inst *validator.Validate
	once sync.Once
)

func setup() {
	inst = validator.New()
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		inst = v
	}

	inst.SetTagName(tagName)
	inst.RegisterTagNameFunc(fieldName)

	inst.RegisterAlias("sha256hex", "len=64,hexadecimal")
	_ = inst.RegisterValidation("expire", validateExpire)
	_ = inst.RegisterValidation("mimetype", validateMimeType)
}

// fieldName 错误信息使用 json/form/mapstructure 中的名字.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "mapstructure"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}

		if name != "" {
			return name
		}
	}

	return f.Name
}

func validateExpire(fl validator.FieldLevel) bool {
	d, err := ParseExpire(fl.Field().String())

	return err == nil && d > 0
}

func validateMimeType(fl validator.FieldLevel) bool {
	t, _, err := mime.ParseMediaType(fl.Field().String())

	return err == nil && strings.Count(t, "/") == 1
}

// Engine 返回全局实例. 首次调用会把 gin 的绑定引擎切换到 rule 标签.
func Engine() *validator.Validate {
	once.Do(setup)

	return inst
}

// ValidateStruct 校验结构体，失败时返回 validator.ValidationErrors.
func ValidateStruct(s any) error {
	return Engine().Struct(s)
}

// ValidateVar 按规则校验单个值，例如 ValidateVar(pw, "alphanum").
func ValidateVar(field any, tag string) error {
	return Engine().Var(field, tag)
}

// ParseExpire 解析保留期：整数秒或 Go duration（24h、90m）. 空字符串返回 0.
func ParseExpire(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if n, perr := strconv.ParseInt(s, 10, 64); perr == nil {
		d, err = time.Duration(n)*time.Second, nil
	}

	if err != nil {
		return 0, fmt.Errorf("invalid expire %q", s)
	}

	if d <= 0 {
		return 0, fmt.Errorf("expire must be positive, got %q", s)
	}

	return d, nil
}

// ValidationErrors 字段名到错误描述.
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e[k]
	}

	return strings.Join(parts, "; ")
}

// Errors 把 validator 的错误整理为 ValidationErrors，其他错误原样返回.
func Errors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = describe(fe)
	}

	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "sha256hex":
		return "must be 64 hex characters"
	case "expire":
		return "must be positive seconds or a duration like 24h"
	case "mimetype":
		return "must be a media type like text/plain"
	default:
		return "failed " + fe.Tag()
	}
}

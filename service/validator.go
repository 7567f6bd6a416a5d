package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"palmera/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrValidation 表单校验失败，具体字段见 FieldErrors
var ErrValidation = errors.New("datos del formulario no válidos")

// FieldErrors 字段名（json 名）→ 错误信息
type FieldErrors map[string]string

// Error 实现 error
func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e FieldErrors) Is(target error) bool {
	return target == ErrValidation
}

// Validator 包装 go-playground/validator，错误信息以 json 字段名为键
type Validator struct {
	v *validator.Validate
}

// NewValidator 创建校验器
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// decimal 按数值参与 gt/gte 比较
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	// cents 在自定义类型转换之后执行，字段已是 float64
	_ = v.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.Float64 {
			return false
		}
		return models.IsCents(decimal.NewFromFloat(fl.Field().Float()))
	})
	_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		_, err := models.ParsePaymentMethod(fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

// Struct 校验结构体，通过时返回 nil
func (v *Validator) Struct(i any) FieldErrors {
	err := v.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return FieldErrors{"_": err.Error()}
	}
	out := make(FieldErrors, len(ve))
	for _, fe := range ve {
		key := fe.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}
		if _, exists := out[key]; !exists {
			out[key] = fieldMessage(fe)
		}
	}
	return out
}

// fieldMessage 单个字段的提示信息
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Este campo es obligatorio"
	case "gt":
		return fmt.Sprintf("Debe ser mayor que %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Debe ser mayor o igual que %s", fe.Param())
	case "max":
		return fmt.Sprintf("Máximo %s caracteres", fe.Param())
	case "datetime":
		return "Fecha inválida, usa el formato AAAA-MM-DD"
	case "payment_method":
		return "Método de pago no válido"
	case "cents":
		return "El importe admite como máximo dos decimales"
	case "uuid":
		return "Identificador no válido"
	default:
		return fmt.Sprintf("Valor no válido (%s)", fe.Tag())
	}
}

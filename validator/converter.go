// Package validator 将 ozzo-validation 的校验错误统一转换为 LayeredError
package validator

import (
	"errors"

	"github.com/KOMKZ/go-yogan-inject/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrValidation 校验失败
var ErrValidation = errcode.Register(errcode.New(60, 1, "validator", "error.validator.failed", "参数校验失败"))

// Validatable 可校验接口
type Validatable interface {
	Validate() error
}

// Validate 执行校验
// ozzo 的字段级错误转换为带 fields 数据的 ErrValidation，其他错误原样返回
func Validate(v Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return ConvertValidationError(fieldErrs)
	}
	return err
}

// ConvertValidationError ozzo 错误 -> LayeredError
func ConvertValidationError(fieldErrs validation.Errors) error {
	fields := make(map[string]string, len(fieldErrs))
	for field, fieldErr := range fieldErrs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}
	return ErrValidation.WithData("fields", fields).Wrap(fieldErrs)
}

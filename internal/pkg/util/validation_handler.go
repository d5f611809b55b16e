package util

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateDTO 校验 DTO，失败时返回 validator.ValidationErrors
func ValidateDTO(dto any) error {
	return validate.Struct(dto)
}

// DescribeValidation 取第一条校验错误生成可读信息
func DescribeValidation(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		first := vErrs[0]
		return fmt.Sprintf("字段 [%s] 校验失败，规则 [%s]", first.Field(), first.Tag())
	}
	return "参数错误"
}

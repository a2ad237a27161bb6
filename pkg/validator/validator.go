// Package validator 提供兼容 gin binding.StructValidator 的自定义验证器
package validator

import (
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

// CustomValidator 懒初始化的验证器，tag 使用 binding
type CustomValidator struct {
	Once     sync.Once
	Validate *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

// ValidateStruct 校验结构体（或结构体指针）
func (v *CustomValidator) ValidateStruct(obj interface{}) error {
	if obj == nil {
		return nil
	}

	value := reflect.ValueOf(obj)
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}

	v.lazyinit()
	return v.Validate.Struct(obj)
}

// Engine 返回底层验证引擎，gin 的翻译注册需要它
func (v *CustomValidator) Engine() interface{} {
	v.lazyinit()
	return v.Validate
}

func (v *CustomValidator) lazyinit() {
	v.Once.Do(func() {
		v.Validate = validator.New()
		v.Validate.SetTagName("binding")
	})
}

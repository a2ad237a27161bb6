package convert

import (
	"strconv"
)

// StrTo is a string conversion type
// StrTo 字符串转换类型
type StrTo string

// String converts to a string
// String 转换为字符串
func (s StrTo) String() string {
	return string(s)
}

// Int converts to an int
// Int 转换为 int
func (s StrTo) Int() (int, error) {
	v, err := strconv.Atoi(s.String())
	return v, err
}

// MustInt converts to an int, ignoring errors
// MustInt 转换为 int，忽略错误
func (s StrTo) MustInt() int {
	v, _ := s.Int()
	return v
}

// UInt32 converts to a uint32
// UInt32 转换为 uint32
func (s StrTo) UInt32() (uint32, error) {
	v, err := strconv.Atoi(s.String())
	return uint32(v), err
}

// MustUInt32 converts to a uint32, ignoring errors
// MustUInt32 转换为 uint32，忽略错误
func (s StrTo) MustUInt32() uint32 {
	v, _ := s.UInt32()
	return v
}

// Int64 converts to an int64
// Int64 转换为 int64
func (s StrTo) Int64() (int64, error) {
	v, err := strconv.ParseInt(s.String(), 10, 64)
	return v, err
}

// MustInt64 converts to an int64, ignoring errors
// MustInt64 转换为 int64，忽略错误
func (s StrTo) MustInt64() int64 {
	v, _ := s.Int64()
	return v
}

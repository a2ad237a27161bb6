// Package timex provides a time.Time wrapper with stable JSON and database
// encodings shared by models, domain structs and DTOs.
// Package timex 提供 time.Time 包装类型，为模型、领域结构和 DTO 提供稳定的
// JSON 与数据库编码。
package timex

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const layout = "2006-01-02 15:04:05"

// Time is a time.Time alias with second-precision string JSON encoding.
// Time 是 time.Time 的别名类型，JSON 编码为秒级精度的字符串。
type Time time.Time

// Now returns the current time as a Time.
// Now 返回当前时间的 Time 值。
func Now() Time {
	return Time(time.Now())
}

// T returns the underlying time.Time.
// T 返回底层的 time.Time。
func (t Time) T() time.Time {
	return time.Time(t)
}

func (t Time) Unix() int64 {
	return time.Time(t).Unix()
}

func (t Time) UnixMilli() int64 {
	return time.Time(t).UnixMilli()
}

func (t Time) UnixMicro() int64 {
	return time.Time(t).UnixMicro()
}

func (t Time) UnixNano() int64 {
	return time.Time(t).UnixNano()
}

func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t Time) Before(u Time) bool {
	return time.Time(t).Before(time.Time(u))
}

func (t Time) After(u Time) bool {
	return time.Time(t).After(time.Time(u))
}

func (t Time) Equal(u Time) bool {
	return time.Time(t).Equal(time.Time(u))
}

func (t Time) Add(d time.Duration) Time {
	return Time(time.Time(t).Add(d))
}

func (t Time) Sub(u Time) time.Duration {
	return time.Time(t).Sub(time.Time(u))
}

func (t Time) Format(f string) string {
	return time.Time(t).Format(f)
}

func (t Time) String() string {
	return time.Time(t).Format(layout)
}

// MarshalJSON encodes as "2006-01-02 15:04:05"; the zero value encodes as null.
// MarshalJSON 编码为 "2006-01-02 15:04:05"，零值编码为 null。
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON accepts the canonical layout, RFC3339 and null.
// UnmarshalJSON 接受标准布局、RFC3339 以及 null。
func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*t = Time(time.Time{})
		return nil
	}
	if v, err := time.ParseInLocation(layout, s, time.Local); err == nil {
		*t = Time(v)
		return nil
	}
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("timex: cannot parse %q", s)
	}
	*t = Time(v)
	return nil
}

// Value implements driver.Valuer so gorm can persist the wrapper directly.
// Value 实现 driver.Valuer，使 gorm 可以直接持久化该包装类型。
func (t Time) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return time.Time(t), nil
}

// Scan implements sql.Scanner.
// Scan 实现 sql.Scanner。
func (t *Time) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*t = Time(time.Time{})
	case time.Time:
		*t = Time(x)
	case string:
		parsed, err := time.ParseInLocation(layout, x, time.Local)
		if err != nil {
			return fmt.Errorf("timex: cannot scan %q", x)
		}
		*t = Time(parsed)
	case []byte:
		return t.Scan(string(x))
	default:
		return fmt.Errorf("timex: cannot scan %T", v)
	}
	return nil
}

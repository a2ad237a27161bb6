package timex

import (
	"testing"
	"time"
)

func TestTime_UnixMethods(t *testing.T) {
	// Create a fixed time
	// 创建一个固定时间
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tt := Time(now)

	if tt.Unix() != now.Unix() {
		t.Errorf("Unix() = %v, want %v", tt.Unix(), now.Unix())
	}
	if tt.UnixMilli() != now.UnixMilli() {
		t.Errorf("UnixMilli() = %v, want %v", tt.UnixMilli(), now.UnixMilli())
	}
	if tt.UnixMicro() != now.UnixMicro() {
		t.Errorf("UnixMicro() = %v, want %v", tt.UnixMicro(), now.UnixMicro())
	}
	if tt.UnixNano() != now.UnixNano() {
		t.Errorf("UnixNano() = %v, want %v", tt.UnixNano(), now.UnixNano())
	}

	// Verify it's not returning time.Now() by waiting a bit
	// 通过等待一会确认它不是返回 time.Now()
	time.Sleep(10 * time.Millisecond)
	if tt.Unix() != now.Unix() {
		t.Errorf("Unix() changed after sleep, it should be static. got %v, want %v", tt.Unix(), now.Unix())
	}
}

func TestTime_JSONRoundTrip(t *testing.T) {
	src := Time(time.Date(2024, 3, 15, 8, 30, 0, 0, time.Local))

	data, err := src.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(data) != `"2024-03-15 08:30:00"` {
		t.Errorf("MarshalJSON() = %s", data)
	}

	var dst Time
	if err := dst.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if !dst.Equal(src) {
		t.Errorf("round trip = %v, want %v", dst.T(), src.T())
	}
}

func TestTime_ZeroMarshalsNull(t *testing.T) {
	var zero Time
	data, err := zero.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(data) != "null" {
		t.Errorf("MarshalJSON() = %s, want null", data)
	}
}

func TestTime_ScanValue(t *testing.T) {
	src := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	var tt Time
	if err := tt.Scan(src); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	v, err := tt.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	got, ok := v.(time.Time)
	if !ok || !got.Equal(src) {
		t.Errorf("Value() = %v, want %v", v, src)
	}
}

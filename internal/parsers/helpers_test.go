package parsers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func float64Ptr(v float64) *float64 { return &v }

func TestParseFloat(t *testing.T) {
	tests := []struct {
		input string
		want  *float64
	}{
		{"100", float64Ptr(100)},
		{"3.14", float64Ptr(3.14)},
		{"", nil},
		{"abc", nil},
		{" 42 ", float64Ptr(42)},
	}

	for _, tt := range tests {
		got := ParseFloat(tt.input)
		if tt.want == nil {
			if got != nil {
				t.Errorf("ParseFloat(%q) = %v, want nil", tt.input, *got)
			}
		} else {
			if got == nil {
				t.Errorf("ParseFloat(%q) = nil, want %v", tt.input, *tt.want)
			} else if *got != *tt.want {
				t.Errorf("ParseFloat(%q) = %v, want %v", tt.input, *got, *tt.want)
			}
		}
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"$1,234.50", 1234.50, true},
		{"$0.10", 0.10, true},
		{"0.05", 0.05, true},
		{" $3 ", 3, true},
		{"", 0, false},
		{"free", 0, false},
		{"NaN", 0, false},
		{"$Inf", 0, false},
		{"-infinity", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseMoney(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseMoney(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	if got := ParseTimestamp("1768055295000"); !got.Equal(time.UnixMilli(1768055295000)) {
		t.Errorf("epoch millis parsed as %v", got)
	}
	if got := ParseTimestamp("1700000000"); !got.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("epoch seconds parsed as %v", got)
	}
	if got := ParseTimestamp("2025-01-01T00:00:00.000Z"); got.IsZero() {
		t.Error("expected RFC3339 millis to parse")
	}
	if got := ParseTimestamp("2025-01-15"); got.Day() != 15 {
		t.Errorf("date parsed as %v", got)
	}
	if got := ParseTimestamp("soon"); !got.IsZero() {
		t.Errorf("garbage parsed as %v", got)
	}
}

func TestFlexInt(t *testing.T) {
	var v struct {
		A FlexInt `json:"a"`
		B FlexInt `json:"b"`
		C FlexInt `json:"c"`
		D FlexInt `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a":"2343133","b":42,"c":null,"d":12.0}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A != 2343133 || v.B != 42 || v.C != 0 || v.D != 12 {
		t.Errorf("got %+v", v)
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("user_01ABC::eyJhbGciOi"); got != "user...ciOi" {
		t.Errorf("MaskSecret(long) = %q, want user...ciOi", got)
	}
	if got := MaskSecret("short"); got != "****" {
		t.Errorf("MaskSecret(short) = %q", got)
	}
}

func TestRedactHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer sk-1234567890abcdef")
	h.Set("Content-Type", "application/json")
	h.Set("X-RateLimit-Remaining", "42")

	redacted := RedactHeaders(h)

	if redacted["Authorization"] == "Bearer sk-1234567890abcdef" {
		t.Error("Authorization should be redacted")
	}
	if redacted["Content-Type"] != "application/json" {
		t.Error("Content-Type should not be redacted")
	}
	if redacted["X-Ratelimit-Remaining"] != "42" {
		t.Errorf("X-RateLimit-Remaining = %q, want '42'", redacted["X-Ratelimit-Remaining"])
	}
}

func TestFormatMoney(t *testing.T) {
	tests := map[float64]string{
		0:         "$0.00",
		0.5:       "$0.50",
		999.999:   "$1,000.00",
		1234567.8: "$1,234,567.80",
		-12.3:     "-$12.30",
	}
	for in, want := range tests {
		if got := FormatMoney(in); got != want {
			t.Errorf("FormatMoney(%v) = %q, want %q", in, got, want)
		}
	}
}

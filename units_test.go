package labelgen

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseLength(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1in", 72},
		{"2.625in", 189},
		{" 0.5 IN ", 36},
		{"25.4mm", 72},
		{"2.54cm", 72},
		{"12pt", 12},
		{"12", 12},
		{"-3", -3},
	}
	for _, tt := range tests {
		got, err := ParseLength(tt.in)
		if err != nil {
			t.Errorf("ParseLength(%q): %v", tt.in, err)
			continue
		}
		if math.Abs(got.Points()-tt.want) > 1e-9 {
			t.Errorf("ParseLength(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "in", "abc", "1.2.3mm", "5px"} {
		if _, err := ParseLength(bad); err == nil {
			t.Errorf("ParseLength(%q): expected error", bad)
		}
	}
}

func TestLengthUnmarshalJSON(t *testing.T) {
	var v struct {
		A Length `json:"a"`
		B Length `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": 10.5, "b": "1in"}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.A != 10.5 || v.B != 72 {
		t.Errorf("got %+v", v)
	}
	if err := json.Unmarshal([]byte(`{"a": true}`), &v); err == nil {
		t.Error("bool length: expected error")
	}
}

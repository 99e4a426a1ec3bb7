package labelgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Length is a distance in points. In JSON it is either a bare number of
// points or a string with a unit suffix: "2.625in", "66.7mm", "1.2cm", "12pt".
type Length float64

// Points returns the length as a plain float.
func (l Length) Points() float64 { return float64(l) }

// UnmarshalJSON accepts numbers and unit strings.
func (l *Length) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParseLength(s)
		if err != nil {
			return err
		}
		*l = v
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("length: %w", err)
	}
	*l = Length(f)
	return nil
}

// ParseLength parses "0.5in", "12mm", "1cm", "36pt" or "36" (points).
func ParseLength(token string) (Length, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return 0, fmt.Errorf("length: empty value")
	}

	unit := 1.0
	switch {
	case strings.HasSuffix(token, "in"):
		unit, token = Inch, strings.TrimSuffix(token, "in")
	case strings.HasSuffix(token, "mm"):
		unit, token = MM, strings.TrimSuffix(token, "mm")
	case strings.HasSuffix(token, "cm"):
		unit, token = CM, strings.TrimSuffix(token, "cm")
	case strings.HasSuffix(token, "pt"):
		token = strings.TrimSuffix(token, "pt")
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil {
		return 0, fmt.Errorf("length %q: %w", token, err)
	}
	return Length(v * unit), nil
}

func mmToPx(mm, dpi float64) float64 {
	return mm * dpi / MMPerInch
}

func ptToPx(pt, dpi float64) float64 {
	return pt * dpi / PointsPerInch
}

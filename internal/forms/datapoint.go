package forms

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"CapIot.portal/internal/models"
)

// ErrNotANumber is returned when an input has no leading integer.
var ErrNotANumber = errors.New("not a number")

// Defaults of the testing form.
const (
	DefaultValue   = "3300"
	DefaultBattery = "100"
)

// DatapointForm is the raw input of the add-datapoints page.
type DatapointForm struct {
	DeviceID string `json:"deviceHashedMACAddress"`
	Value    string `json:"value"`
	Battery  string `json:"battery"`
}

// NewDatapointForm returns a form with the page defaults filled in.
func NewDatapointForm(deviceID string) DatapointForm {
	return DatapointForm{DeviceID: deviceID, Value: DefaultValue, Battery: DefaultBattery}
}

// Datapoint parses and clamps the numeric inputs. Out of range numbers are
// clamped, inputs without a leading integer are rejected.
func (f DatapointForm) Datapoint() (models.Datapoint, error) {
	value, err := ParseInt(f.Value)
	if err != nil {
		return models.Datapoint{}, err
	}
	battery, err := ParseInt(f.Battery)
	if err != nil {
		return models.Datapoint{}, err
	}
	return models.Datapoint{
		Value:                  Clamp(value, models.MinValue, models.MaxValue),
		Battery:                Clamp(battery, models.MinBattery, models.MaxBattery),
		DeviceHashedMACAddress: f.DeviceID,
	}, nil
}

// ParseInt reads an integer the way browsers' parseInt does without a
// radix: leading whitespace and an optional sign are skipped, a 0x or 0X
// prefix switches to base 16, digits are consumed up to the first non-digit
// and the rest is ignored. Values beyond the int range saturate.
func ParseInt(s string) (int, error) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}
	base, isDigit := 10, isDecimal
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base, isDigit, s = 16, isHex, s[2:]
	}
	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == 0 {
		return 0, ErrNotANumber
	}
	n, err := strconv.ParseInt(sign+s[:end], base, 0)
	if err != nil {
		if sign == "-" {
			return math.MinInt, nil
		}
		return math.MaxInt, nil
	}
	return int(n), nil
}

func isDecimal(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDecimal(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func Clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

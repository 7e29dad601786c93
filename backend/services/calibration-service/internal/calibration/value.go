package calibration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Kind tells which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// SentinelText is returned as a string value when the service has no calibration.
const SentinelText = "null"

// Sentinel is the fallback result of Resolve. It is the string "null", not a JSON null.
var Sentinel = String(SentinelText)

// Value is a calibrated value as returned by the calibration service: any JSON
// scalar. Numbers keep their original JSON text.
type Value struct {
	kind Kind
	num  json.Number
	str  string
	b    bool
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// Number builds a numeric value from f.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

// String builds a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Bool builds a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func (v Value) Kind() Kind {
	return v.kind
}

// IsSentinel reports whether v is the "null" string fallback.
func (v Value) IsSentinel() bool {
	return v.kind == KindString && v.str == SentinelText
}

// Float64 returns the numeric value. ok is false for non-numbers.
func (v Value) Float64() (f float64, ok bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// Text returns the string value. ok is false for non-strings.
func (v Value) Text() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Boolean returns the boolean value. ok is false for non-booleans.
func (v Value) Boolean() (b, ok bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return v.num.String()
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return "<null>"
	}
}

// Interface returns float64, string, bool or nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		f, _ := v.Float64()
		return f
	case KindString:
		return v.str
	case KindBool:
		return v.b
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return []byte(v.num), nil
	case KindString:
		return json.Marshal(v.str)
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty calibrated value")
	}

	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return fmt.Errorf("invalid calibrated value %q", data)
		}
		*v = Null()
		return nil
	case 't', 'f':
		switch string(data) {
		case "true":
			*v = Bool(true)
		case "false":
			*v = Bool(false)
		default:
			return fmt.Errorf("invalid calibrated value %q", data)
		}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return err
		}
		*v = Value{kind: KindNumber, num: n}
		return nil
	default:
		return fmt.Errorf("calibrated value must be a json scalar, got %s", data)
	}
}

package decode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseUint64 converts a number or numeric string into a non-negative integer.
// Fractions are truncated. ok is false for anything else, negatives included.
func ParseUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint32:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint:
		return uint64(v), true
	case int:
		return intToUint(int64(v))
	case int64:
		return intToUint(v)
	case int32:
		return intToUint(int64(v))
	case float64:
		return floatToUint(v)
	case json.Number:
		return parseNumeric(string(v))
	case string:
		return parseNumeric(v)
	default:
		return 0, false
	}
}

// AsUint64 is ParseUint64 with missing or malformed values read as zero.
func AsUint64(value any) uint64 {
	n, _ := ParseUint64(value)
	return n
}

// AsSide reads a side or winning-side value. Anything outside 0..2 reads as 0.
func AsSide(value any) uint8 {
	n := AsUint64(value)
	if n > 2 {
		return 0
	}
	return uint8(n)
}

// AsBool accepts a boolean, the literal string "true" or a nonzero number.
func AsBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	case float64:
		return v != 0 && !math.IsNaN(v)
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case uint64:
		return v != 0
	default:
		return false
	}
}

// AsString renders scalars as strings. nil and composite values read as "".
func AsString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case int, int64, uint64:
		return fmt.Sprintf("%d", v)
	default:
		return ""
	}
}

// AsRecord returns value as a JSON object, or nil.
func AsRecord(value any) map[string]any {
	rec, _ := value.(map[string]any)
	return rec
}

// BalanceValue unwraps a balance field, whose amount lives one level deeper under `value`.
// A bare numeric value is accepted as well.
func BalanceValue(value any) uint64 {
	if rec := AsRecord(value); rec != nil {
		return AsUint64(Value(rec, "value"))
	}
	return AsUint64(value)
}

// DecodeJSON decodes raw JSON keeping numbers as json.Number so large integers survive.
// Empty or invalid input yields nil.
func DecodeJSON(raw json.RawMessage) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	return out
}

func parseNumeric(input string) (uint64, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, false
	}
	if n, err := strconv.ParseUint(input, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return 0, false
	}
	return floatToUint(f)
}

func floatToUint(f float64) (uint64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxUint64 {
		return 0, false
	}
	return uint64(f), true
}

func intToUint(v int64) (uint64, bool) {
	if v < 0 {
		return 0, false
	}
	return uint64(v), true
}

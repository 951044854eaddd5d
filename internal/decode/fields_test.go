package decode

import (
	"encoding/json"
	"testing"
)

func TestFieldNamingConventions(t *testing.T) {
	snake := map[string]any{"round_id": "7", "close_timestamp_ms": "10"}
	camel := map[string]any{"roundId": "7", "closeTimestampMs": "10"}

	for _, rec := range []map[string]any{snake, camel} {
		if got := AsUint64(Value(rec, FieldRoundID)); got != 7 {
			t.Fatalf("round id mismatch: %d in %v", got, rec)
		}
		if got := AsUint64(Value(rec, FieldCloseTimestampMs)); got != 10 {
			t.Fatalf("close timestamp mismatch: %d in %v", got, rec)
		}
	}
}

func TestFieldSnakeWinsAndNullIsPresent(t *testing.T) {
	rec := map[string]any{"round_id": "1", "roundId": "2", "side": nil}

	if got := AsUint64(Value(rec, FieldRoundID)); got != 1 {
		t.Fatalf("snake key should win, got %d", got)
	}
	if !Has(rec, FieldSide) {
		t.Fatalf("null side should count as present")
	}
	if Has(rec, FieldAmount) {
		t.Fatalf("amount should be absent")
	}
	if Has(nil, FieldAmount) {
		t.Fatalf("nil record has no fields")
	}
}

func TestCamelCase(t *testing.T) {
	cases := map[string]string{
		"round_id":                    "roundId",
		"strategy_principal_deployed": "strategyPrincipalDeployed",
		"side":                        "side",
	}
	for in, want := range cases {
		if got := camelCase(in); got != want {
			t.Fatalf("camelCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAsUint64(t *testing.T) {
	cases := []struct {
		in   any
		want uint64
	}{
		{"100", 100},
		{" 42 ", 42},
		{float64(12), 12},
		{float64(12.9), 12},
		{json.Number("18446744073709551615"), 18446744073709551615},
		{"abc", 0},
		{"", 0},
		{nil, 0},
		{true, 0},
		{float64(-5), 0},
		{map[string]any{"value": "3"}, 0},
	}
	for _, tc := range cases {
		if got := AsUint64(tc.in); got != tc.want {
			t.Fatalf("AsUint64(%#v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestAsBool(t *testing.T) {
	truthy := []any{true, "true", float64(1), json.Number("2")}
	falsy := []any{false, "TRUE", "1", float64(0), nil, map[string]any{}}

	for _, v := range truthy {
		if !AsBool(v) {
			t.Fatalf("AsBool(%#v) should be true", v)
		}
	}
	for _, v := range falsy {
		if AsBool(v) {
			t.Fatalf("AsBool(%#v) should be false", v)
		}
	}
}

func TestBalanceValue(t *testing.T) {
	if got := BalanceValue(map[string]any{"value": "250"}); got != 250 {
		t.Fatalf("nested balance mismatch: %d", got)
	}
	if got := BalanceValue("40"); got != 40 {
		t.Fatalf("bare balance mismatch: %d", got)
	}
	if got := BalanceValue(map[string]any{"amount": "250"}); got != 0 {
		t.Fatalf("balance without value should be zero, got %d", got)
	}
}

func TestNormalizeAddress(t *testing.T) {
	full := "0x0000000000000000000000000000000000000000000000000000000000000006"
	if got := NormalizeAddress("0x6"); got != full {
		t.Fatalf("short address mismatch: %s", got)
	}
	if got := NormalizeAddress(" 0xABC "); got != NormalizeAddress("0xabc") {
		t.Fatalf("case should not matter: %s", got)
	}
	if got := NormalizeAddress("Alice"); got != "alice" {
		t.Fatalf("non-hex value should be lowercased only: %s", got)
	}
}

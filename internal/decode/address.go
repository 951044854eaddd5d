package decode

import "strings"

const addressHexLen = 64

// NormalizeAddress lowercases an address and left-pads short hex forms (0x6) to the full
// 32-byte width so the same account compares equal whichever form a payload used.
// Values that are not hex are only trimmed and lowercased.
func NormalizeAddress(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	hex := strings.TrimPrefix(addr, "0x")
	if hex == "" || len(hex) > addressHexLen || !isHex(hex) {
		return addr
	}
	return "0x" + strings.Repeat("0", addressHexLen-len(hex)) + hex
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

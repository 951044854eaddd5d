package decode

import "sort"

// CollectRoundLike walks arbitrarily nested arrays and objects and returns every object that
// looks like a round row (it has a round id and a close timestamp), in traversal order.
// Object keys are visited in sorted order so the result is deterministic.
func CollectRoundLike(value any) []map[string]any {
	var out []map[string]any
	collectRoundLike(value, &out)
	return out
}

func collectRoundLike(value any, out *[]map[string]any) {
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			collectRoundLike(item, out)
		}
	case map[string]any:
		if looksLikeRound(v) {
			*out = append(*out, v)
		}
		for _, key := range sortedKeys(v) {
			collectRoundLike(v[key], out)
		}
	}
}

func looksLikeRound(rec map[string]any) bool {
	return Has(rec, FieldRoundID) && Has(rec, FieldCloseTimestampMs)
}

func sortedKeys(rec map[string]any) []string {
	keys := make([]string, 0, len(rec))
	for key := range rec {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

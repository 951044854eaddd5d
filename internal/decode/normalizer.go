package decode

import (
	"predictionScope/internal/model"
)

// ResolveType returns the event's type descriptor as `address::module::name`.
// `type` wins when it is a non-empty string, then `type_` as a string, then `type_` as an object.
func ResolveType(raw model.RawEvent) string {
	if s, ok := DecodeJSON(raw.Type).(string); ok && s != "" {
		return s
	}
	alt := DecodeJSON(raw.TypeAlt)
	if s, ok := alt.(string); ok {
		return s
	}
	if rec := AsRecord(alt); rec != nil {
		return AsString(rec["address"]) + "::" + AsString(rec["module"]) + "::" + AsString(rec["name"])
	}
	return ""
}

// Normalize converts a raw event into its canonical shape. It never fails: malformed
// fields read as zero values and unrecognized events classify as Unknown.
func Normalize(raw model.RawEvent) model.NormalizedEvent {
	eventType := ResolveType(raw)
	payload := AsRecord(DecodeJSON(raw.ParsedJSON))

	digest := raw.ID.TxDigest
	if digest == "" {
		digest = raw.TxDigest
	}

	return model.NormalizedEvent{
		Kind:        Classify(eventType, payload),
		Type:        eventType,
		Payload:     payload,
		TxDigest:    digest,
		EventSeq:    raw.ID.EventSeq,
		Sender:      raw.Sender,
		TimestampMs: AsUint64(DecodeJSON(raw.TimestampMs)),
	}
}

// NormalizeAll normalizes events preserving order.
func NormalizeAll(raws []model.RawEvent) []model.NormalizedEvent {
	out := make([]model.NormalizedEvent, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

// RoundID reads the round id of a payload. ok is false when it is missing or not numeric.
func RoundID(payload map[string]any) (uint64, bool) {
	return ParseUint64(Value(payload, FieldRoundID))
}

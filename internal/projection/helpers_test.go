package projection

import (
	"predictionScope/internal/model"
)

func evt(kind model.EventKind, digest string, ts uint64, payload map[string]any) model.NormalizedEvent {
	return model.NormalizedEvent{
		Kind:        kind,
		Type:        "0xpkg::market::" + string(kind),
		Payload:     payload,
		TxDigest:    digest,
		Sender:      "0xcreator",
		TimestampMs: ts,
	}
}

func created(roundID string, metadataID string) model.NormalizedEvent {
	return evt(model.KindRoundCreated, "C"+roundID, 100, map[string]any{
		"round_id":           roundID,
		"close_timestamp_ms": "5000",
		"metadata_id":        metadataID,
	})
}

func bet(roundID string, side int, amount string, user string, ts uint64) model.NormalizedEvent {
	return evt(model.KindBetPlaced, "B"+amount, ts, map[string]any{
		"round_id": roundID,
		"side":     side,
		"amount":   amount,
		"user":     user,
	})
}

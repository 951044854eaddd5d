package model

// EventKind is the classification of a normalized event.
type EventKind string

const (
	KindBetPlaced          EventKind = "BetPlaced"
	KindYieldFunded        EventKind = "YieldFunded"
	KindRoundCreated       EventKind = "RoundCreated"
	KindRoundResolved      EventKind = "RoundResolved"
	KindPrincipalWithdrawn EventKind = "PrincipalWithdrawn"
	KindYieldClaimed       EventKind = "YieldClaimed"
	KindUnknown            EventKind = "Unknown"
)

// NormalizedEvent is a raw event with a resolved type, a decoded payload and a kind.
// Payload is nil when the node returned no parsed JSON or it was not an object.
type NormalizedEvent struct {
	Kind        EventKind      `json:"kind"`
	Type        string         `json:"type"`
	Payload     map[string]any `json:"payload"`
	TxDigest    string         `json:"tx_digest"`
	EventSeq    string         `json:"event_seq"`
	Sender      string         `json:"sender"`
	TimestampMs uint64         `json:"timestamp_ms"`
}

// ObjectSnapshot is a point-in-time read of an on-chain object. Fields is nil when the
// object does not exist or has no struct content.
type ObjectSnapshot struct {
	ID      string         `json:"id"`
	Type    string         `json:"type,omitempty"`
	Version string         `json:"version,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Exists reports whether the snapshot carries struct fields.
func (o ObjectSnapshot) Exists() bool {
	return o.Fields != nil
}

// RoundMetadata is the immutable metadata object referenced by a RoundCreated event.
type RoundMetadata struct {
	ObjectID string `json:"object_id"`
	RoundID  uint64 `json:"round_id"`
	Question string `json:"question"`
}

package model

import (
	"encoding/json"
)

// EventID identifies an event by transaction digest and sequence within the transaction.
// It doubles as the pagination cursor of the event log.
type EventID struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// Complete reports whether both parts of the id are set. Only complete ids identify an event.
func (id EventID) Complete() bool {
	return id.TxDigest != "" && id.EventSeq != ""
}

// Key returns a stable identity for de-duplication.
func (id EventID) Key() string {
	return id.TxDigest + ":" + id.EventSeq
}

// RawEvent is an event record as returned by the node. The type descriptor may arrive under
// `type` as a string or under `type_` as a string or an {address,module,name} object, and the
// timestamp may be a string or a number, so those fields are kept undecoded.
type RawEvent struct {
	ID          EventID         `json:"id"`
	TxDigest    string          `json:"txDigest,omitempty"`
	Sender      string          `json:"sender"`
	Type        json.RawMessage `json:"type,omitempty"`
	TypeAlt     json.RawMessage `json:"type_,omitempty"`
	ParsedJSON  json.RawMessage `json:"parsedJson,omitempty"`
	TimestampMs json.RawMessage `json:"timestampMs,omitempty"`
}

// EventQuery selects one page of a module's event log.
type EventQuery struct {
	Package    string
	Module     string
	Cursor     *EventID
	Limit      int
	Descending bool
}

// EventPage is one page of the event log.
type EventPage struct {
	Data        []RawEvent `json:"data"`
	NextCursor  *EventID   `json:"nextCursor"`
	HasNextPage bool       `json:"hasNextPage"`
}

package decode

import (
	"strings"

	"predictionScope/internal/model"
)

// Canonical payload field names.
const (
	FieldRoundID          = "round_id"
	FieldCloseTimestampMs = "close_timestamp_ms"
	FieldMetadataID       = "metadata_id"
	FieldSide             = "side"
	FieldAmount           = "amount"
	FieldUser             = "user"
	FieldWinningSide      = "winning_side"
	FieldQuestion         = "question"
)

// taggedKinds are matched against the `::Name` suffix of the type descriptor.
var taggedKinds = []model.EventKind{
	model.KindRoundCreated,
	model.KindBetPlaced,
	model.KindYieldFunded,
	model.KindRoundResolved,
	model.KindPrincipalWithdrawn,
	model.KindYieldClaimed,
}

type shapeRule struct {
	kind  model.EventKind
	match func(map[string]any) bool
}

// shapeRules is evaluated in order when the type descriptor carries no known suffix.
// BetPlaced and PrincipalWithdrawn share a shape, so an untagged withdrawal reads as a bet.
// YieldClaimed is the YieldFunded shape plus a user, so it is tested first.
var shapeRules = []shapeRule{
	{model.KindRoundCreated, func(p map[string]any) bool {
		return hasAll(p, FieldRoundID, FieldCloseTimestampMs, FieldMetadataID)
	}},
	{model.KindRoundResolved, func(p map[string]any) bool {
		return hasAll(p, FieldRoundID, FieldWinningSide)
	}},
	{model.KindBetPlaced, func(p map[string]any) bool {
		return hasAll(p, FieldRoundID, FieldSide, FieldAmount, FieldUser)
	}},
	{model.KindPrincipalWithdrawn, func(p map[string]any) bool {
		return hasAll(p, FieldRoundID, FieldSide, FieldAmount, FieldUser)
	}},
	{model.KindYieldClaimed, func(p map[string]any) bool {
		return hasAll(p, FieldRoundID, FieldAmount, FieldUser) && !Has(p, FieldSide)
	}},
	{model.KindYieldFunded, func(p map[string]any) bool {
		return hasAll(p, FieldRoundID, FieldAmount) && !Has(p, FieldSide)
	}},
}

// Classify assigns exactly one kind to an event. A known type suffix wins; otherwise the
// payload shape decides, and anything unmatched is Unknown.
func Classify(eventType string, payload map[string]any) model.EventKind {
	for _, kind := range taggedKinds {
		if strings.HasSuffix(eventType, "::"+string(kind)) {
			return kind
		}
	}
	if payload == nil {
		return model.KindUnknown
	}
	for _, rule := range shapeRules {
		if rule.match(payload) {
			return rule.kind
		}
	}
	return model.KindUnknown
}

func hasAll(p map[string]any, names ...string) bool {
	for _, name := range names {
		if !Has(p, name) {
			return false
		}
	}
	return true
}

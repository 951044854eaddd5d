package projection

import (
	"fmt"
	"sort"

	"predictionScope/internal/decode"
	"predictionScope/internal/model"
)

// MarketBook accumulates market state keyed by round id for one refresh cycle.
type MarketBook struct {
	markets map[uint64]*model.MarketState
	order   []uint64
}

func NewMarketBook() *MarketBook {
	return &MarketBook{markets: make(map[uint64]*model.MarketState)}
}

// PlaceholderQuestion is shown until a round's metadata object is read.
func PlaceholderQuestion(roundID uint64) string {
	return fmt.Sprintf("Round #%d", roundID)
}

// ProjectMarkets folds snapshot rows, events and metadata into markets sorted by round id,
// newest first.
func ProjectMarkets(rows []map[string]any, events []model.NormalizedEvent, metadata []model.RoundMetadata) []model.MarketState {
	book := NewMarketBook()
	book.Seed(rows)
	book.ApplyCreated(events)
	book.ApplyMetadata(metadata)
	book.ApplyEvents(events)
	return book.Markets()
}

// Seed inserts one market per snapshot row, taking pools and resolution verbatim.
// A missing or malformed round id reads as round 0; a repeated round id keeps the last row.
func (b *MarketBook) Seed(rows []map[string]any) {
	for _, row := range rows {
		roundID, _ := decode.RoundID(row)
		market := &model.MarketState{
			RoundID:          roundID,
			Question:         PlaceholderQuestion(roundID),
			CloseTimestampMs: decode.AsUint64(decode.Value(row, decode.FieldCloseTimestampMs)),
			TotalYes:         decode.AsUint64(decode.Value(row, "total_yes")),
			TotalNo:          decode.AsUint64(decode.Value(row, "total_no")),
			YieldPool:        decode.AsUint64(decode.Value(row, "yield_pool")),
			Resolved:         decode.AsBool(decode.Value(row, "resolved")),
			WinningSide:      decode.AsSide(decode.Value(row, decode.FieldWinningSide)),
		}
		if existing, ok := b.markets[roundID]; ok {
			*existing = *market
			continue
		}
		b.insert(market)
	}
}

// ApplyCreated folds RoundCreated events. Unseen rounds get a bare entry, and the creation
// envelope is taken from the first RoundCreated event seen for a round.
func (b *MarketBook) ApplyCreated(events []model.NormalizedEvent) {
	for _, evt := range events {
		if evt.Kind != model.KindRoundCreated || evt.Payload == nil {
			continue
		}
		roundID, _ := decode.RoundID(evt.Payload)
		market, exists := b.markets[roundID]
		if !exists {
			market = &model.MarketState{
				RoundID:          roundID,
				Question:         PlaceholderQuestion(roundID),
				CloseTimestampMs: decode.AsUint64(decode.Value(evt.Payload, decode.FieldCloseTimestampMs)),
			}
			b.insert(market)
		}
		if market.CreateDigest == "" {
			market.CreateDigest = evt.TxDigest
			market.CreatedBy = evt.Sender
			market.CreatedAtMs = evt.TimestampMs
		}
	}
}

// MetadataIDs lists the metadata object ids referenced by RoundCreated events, de-duplicated
// in first-seen order.
func MetadataIDs(events []model.NormalizedEvent) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, evt := range events {
		if evt.Kind != model.KindRoundCreated || evt.Payload == nil {
			continue
		}
		id, ok := decode.Value(evt.Payload, decode.FieldMetadataID).(string)
		if !ok || id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// ReadRoundMetadata extracts a metadata object's round id and question.
func ReadRoundMetadata(snapshot model.ObjectSnapshot) (model.RoundMetadata, bool) {
	if !snapshot.Exists() {
		return model.RoundMetadata{}, false
	}
	roundID, _ := decode.RoundID(snapshot.Fields)
	question, _ := decode.Value(snapshot.Fields, decode.FieldQuestion).(string)
	return model.RoundMetadata{ObjectID: snapshot.ID, RoundID: roundID, Question: question}, true
}

// ApplyMetadata overwrites questions with non-empty metadata text.
func (b *MarketBook) ApplyMetadata(metadata []model.RoundMetadata) {
	for _, meta := range metadata {
		market, ok := b.markets[meta.RoundID]
		if !ok || meta.Question == "" {
			continue
		}
		market.Question = meta.Question
	}
}

// ApplyEvents folds bets, yield funding and resolutions into known rounds.
//
// Pools are only seeded from events while they are still empty: the snapshot already reflects
// every bet, so events fill in rounds the snapshot did not carry without double counting.
// The bet rule is per round, not per side.
func (b *MarketBook) ApplyEvents(events []model.NormalizedEvent) {
	for _, evt := range events {
		if evt.Payload == nil {
			continue
		}
		roundID, _ := decode.RoundID(evt.Payload)
		market, ok := b.markets[roundID]
		if !ok {
			continue
		}

		switch evt.Kind {
		case model.KindBetPlaced:
			if market.TotalYes+market.TotalNo != 0 {
				continue
			}
			amount := decode.AsUint64(decode.Value(evt.Payload, decode.FieldAmount))
			switch decode.AsSide(decode.Value(evt.Payload, decode.FieldSide)) {
			case model.SideYes:
				market.TotalYes += amount
			case model.SideNo:
				market.TotalNo += amount
			}
		case model.KindYieldFunded:
			if market.YieldPool == 0 {
				market.YieldPool += decode.AsUint64(decode.Value(evt.Payload, decode.FieldAmount))
			}
		case model.KindRoundResolved:
			market.Resolved = true
			market.WinningSide = decode.AsSide(decode.Value(evt.Payload, decode.FieldWinningSide))
		}
	}
}

// Markets returns copies of every market, newest round first.
func (b *MarketBook) Markets() []model.MarketState {
	out := make([]model.MarketState, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.markets[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoundID > out[j].RoundID })
	return out
}

func (b *MarketBook) insert(market *model.MarketState) {
	b.markets[market.RoundID] = market
	b.order = append(b.order, market.RoundID)
}

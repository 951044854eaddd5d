package projection

import (
	"sort"

	"predictionScope/internal/decode"
	"predictionScope/internal/model"
)

// ProjectPortfolio replays the complete event log for one participant. An empty identity
// yields an empty portfolio carrying only the wallet balance.
func ProjectPortfolio(events []model.NormalizedEvent, identity string, walletBalance uint64) model.Portfolio {
	portfolio := model.Portfolio{
		Owner:         identity,
		Positions:     []model.UserPosition{},
		History:       []model.UserActivity{},
		WalletBalance: walletBalance,
		ByRound:       map[uint64]model.UserPosition{},
	}
	if identity == "" {
		return portfolio
	}
	owner := decode.NormalizeAddress(identity)
	portfolio.Owner = owner

	positions := make(map[uint64]*model.UserPosition)
	position := func(roundID uint64) *model.UserPosition {
		pos, ok := positions[roundID]
		if !ok {
			pos = &model.UserPosition{RoundID: roundID}
			positions[roundID] = pos
		}
		return pos
	}

	for _, evt := range events {
		if evt.Payload == nil {
			continue
		}
		switch evt.Kind {
		case model.KindBetPlaced, model.KindPrincipalWithdrawn, model.KindYieldClaimed:
		default:
			continue
		}
		user, _ := decode.Value(evt.Payload, decode.FieldUser).(string)
		if user == "" || decode.NormalizeAddress(user) != owner {
			continue
		}
		roundID, _ := decode.RoundID(evt.Payload)
		amount := decode.AsUint64(decode.Value(evt.Payload, decode.FieldAmount))
		side := decode.AsSide(decode.Value(evt.Payload, decode.FieldSide))

		activity := model.UserActivity{
			Digest:      evt.TxDigest,
			RoundID:     roundID,
			Amount:      amount,
			Side:        side,
			TimestampMs: evt.TimestampMs,
		}

		switch evt.Kind {
		case model.KindBetPlaced:
			pos := position(roundID)
			switch side {
			case model.SideYes:
				pos.Yes += amount
			case model.SideNo:
				pos.No += amount
			}
			activity.Action = model.ActionBet
		case model.KindPrincipalWithdrawn:
			pos := position(roundID)
			switch side {
			case model.SideYes:
				pos.Yes = subClamp(pos.Yes, amount)
			case model.SideNo:
				pos.No = subClamp(pos.No, amount)
			}
			activity.Action = model.ActionWithdraw
		case model.KindYieldClaimed:
			activity.Action = model.ActionClaim
			activity.Side = model.SideNone
		}
		portfolio.History = append(portfolio.History, activity)
	}

	for _, pos := range positions {
		pos.Total = pos.Yes + pos.No
		portfolio.Positions = append(portfolio.Positions, *pos)
		portfolio.ByRound[pos.RoundID] = *pos
		portfolio.TotalStaked += pos.Total
	}
	sort.Slice(portfolio.Positions, func(i, j int) bool {
		return portfolio.Positions[i].RoundID > portfolio.Positions[j].RoundID
	})
	sort.SliceStable(portfolio.History, func(i, j int) bool {
		return portfolio.History[i].TimestampMs > portfolio.History[j].TimestampMs
	})
	return portfolio
}

func subClamp(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

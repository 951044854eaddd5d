package model

// ActivityAction labels a user activity entry.
type ActivityAction string

const (
	ActionBet      ActivityAction = "BET"
	ActionWithdraw ActivityAction = "WITHDRAW"
	ActionClaim    ActivityAction = "CLAIM"
)

// UserPosition is one participant's principal in one round. Total is always Yes + No.
type UserPosition struct {
	RoundID uint64 `json:"round_id"`
	Yes     uint64 `json:"yes"`
	No      uint64 `json:"no"`
	Total   uint64 `json:"total"`
}

// UserActivity is an append-only history entry.
type UserActivity struct {
	Digest      string         `json:"digest"`
	Action      ActivityAction `json:"action"`
	RoundID     uint64         `json:"round_id"`
	Amount      uint64         `json:"amount"`
	Side        uint8          `json:"side"`
	TimestampMs uint64         `json:"timestamp_ms"`
}

// Portfolio is the projected view of one participant.
type Portfolio struct {
	Owner         string                  `json:"owner"`
	Positions     []UserPosition          `json:"positions"`
	TotalStaked   uint64                  `json:"total_staked"`
	WalletBalance uint64                  `json:"wallet_balance"`
	History       []UserActivity          `json:"history"`
	ByRound       map[uint64]UserPosition `json:"by_round"`
}

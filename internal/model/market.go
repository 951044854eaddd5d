package model

// Sides of a round. SideNone doubles as "undetermined" for an unresolved round.
const (
	SideNone uint8 = 0
	SideYes  uint8 = 1
	SideNo   uint8 = 2
)

// MarketState is the projected state of one round.
type MarketState struct {
	RoundID          uint64 `json:"round_id"`
	Question         string `json:"question"`
	CloseTimestampMs uint64 `json:"close_timestamp_ms"`
	TotalYes         uint64 `json:"total_yes"`
	TotalNo          uint64 `json:"total_no"`
	YieldPool        uint64 `json:"yield_pool"`
	Resolved         bool   `json:"resolved"`
	WinningSide      uint8  `json:"winning_side"`
	CreatedBy        string `json:"created_by"`
	CreateDigest     string `json:"create_digest"`
	CreatedAtMs      uint64 `json:"created_at_ms"`
}

// StrategyMetrics is a flat snapshot of the market object's yield strategy balances.
type StrategyMetrics struct {
	PrincipalVault              uint64 `json:"principal_vault"`
	DeployedPrincipal           uint64 `json:"deployed_principal"`
	StrategyYieldVault          uint64 `json:"strategy_yield_vault"`
	RoundYieldVault             uint64 `json:"round_yield_vault"`
	TotalStrategyYieldFunded    uint64 `json:"total_strategy_yield_funded"`
	TotalStrategyYieldAllocated uint64 `json:"total_strategy_yield_allocated"`
	StrategyAprBps              uint64 `json:"strategy_apr_bps"`
	StrategyLastAccrualMs       uint64 `json:"strategy_last_accrual_ms"`
	StrategyAccruedAvailable    uint64 `json:"strategy_accrued_available"`
	StrategyTotalAccrued        uint64 `json:"strategy_total_accrued"`
}

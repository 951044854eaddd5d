package projection

import (
	"strings"

	"predictionScope/internal/decode"
	"predictionScope/internal/model"
)

// ReadStrategy maps the market object's fields into strategy metrics. Missing fields, and a
// missing object, read as zero.
func ReadStrategy(fields map[string]any) model.StrategyMetrics {
	if fields == nil {
		return model.StrategyMetrics{}
	}
	u := func(name string) uint64 { return decode.AsUint64(decode.Value(fields, name)) }
	balance := func(name string) uint64 { return decode.BalanceValue(decode.Value(fields, name)) }

	return model.StrategyMetrics{
		PrincipalVault:              balance("principal_vault"),
		DeployedPrincipal:           balance("strategy_principal_deployed"),
		StrategyYieldVault:          balance("strategy_yield_vault"),
		RoundYieldVault:             balance("yield_vault"),
		TotalStrategyYieldFunded:    u("strategy_total_yield_funded"),
		TotalStrategyYieldAllocated: u("strategy_total_yield_allocated"),
		StrategyAprBps:              u("strategy_apr_bps"),
		StrategyLastAccrualMs:       u("strategy_last_accrual_ms"),
		StrategyAccruedAvailable:    u("strategy_accrued_available"),
		StrategyTotalAccrued:        u("strategy_total_accrued"),
	}
}

// ReadAdmin returns the market object's admin address lowercased, or "" when unset.
func ReadAdmin(fields map[string]any) string {
	admin, _ := decode.Value(fields, "admin").(string)
	return strings.ToLower(admin)
}

// IsAdmin reports whether identity is the market admin.
func IsAdmin(fields map[string]any, identity string) bool {
	admin := ReadAdmin(fields)
	if admin == "" || identity == "" {
		return false
	}
	return decode.NormalizeAddress(admin) == decode.NormalizeAddress(identity)
}

package projection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"predictionScope/internal/model"
)

func TestReadStrategyMissingObject(t *testing.T) {
	assert.Equal(t, model.StrategyMetrics{}, ReadStrategy(nil))
}

func TestReadStrategyUnwrapsBalances(t *testing.T) {
	fields := map[string]any{
		"principal_vault":                map[string]any{"value": "1000"},
		"strategy_principal_deployed":    map[string]any{"value": json.Number("600")},
		"strategy_yield_vault":           map[string]any{"value": "25"},
		"yield_vault":                    map[string]any{"value": "12"},
		"strategy_total_yield_funded":    "40",
		"strategy_total_yield_allocated": "30",
		"strategyAprBps":                 "450",
		"strategy_last_accrual_ms":       "1700000000000",
		"strategy_accrued_available":     "5",
		"strategy_total_accrued":         "45",
	}

	got := ReadStrategy(fields)

	assert.Equal(t, model.StrategyMetrics{
		PrincipalVault:              1000,
		DeployedPrincipal:           600,
		StrategyYieldVault:          25,
		RoundYieldVault:             12,
		TotalStrategyYieldFunded:    40,
		TotalStrategyYieldAllocated: 30,
		StrategyAprBps:              450,
		StrategyLastAccrualMs:       1700000000000,
		StrategyAccruedAvailable:    5,
		StrategyTotalAccrued:        45,
	}, got)
}

func TestReadAdmin(t *testing.T) {
	fields := map[string]any{"admin": "0xABC"}

	assert.Equal(t, "0xabc", ReadAdmin(fields))
	assert.Equal(t, "", ReadAdmin(nil))
	assert.True(t, IsAdmin(fields, "0x0000000000000000000000000000000000000000000000000000000000000abc"))
	assert.False(t, IsAdmin(fields, "0xdef"))
}

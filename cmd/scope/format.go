package main

import (
	"encoding/json"
	"io"
	"math/big"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/shopspring/decimal"

	"predictionScope/internal/model"
)

// coinDecimals is the number of decimals of the native coin.
const coinDecimals = 9

func formatCoin(amount uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -coinDecimals).String()
}

func formatSide(side uint8) string {
	switch side {
	case model.SideYes:
		return "YES"
	case model.SideNo:
		return "NO"
	default:
		return "-"
	}
}

func formatMillis(ms uint64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339)
}

func formatBps(bps uint64) string {
	return decimal.New(int64(bps), -2).StringFixed(2) + "%"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Header: tw.CellConfig{
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
		},
	}))
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func marketRows(markets []model.MarketState) [][]string {
	rows := make([][]string, 0, len(markets))
	for _, m := range markets {
		status := "open"
		if m.Resolved {
			status = "resolved " + formatSide(m.WinningSide)
		}
		rows = append(rows, []string{
			strconv.FormatUint(m.RoundID, 10),
			m.Question,
			formatMillis(m.CloseTimestampMs),
			formatCoin(m.TotalYes),
			formatCoin(m.TotalNo),
			formatCoin(m.YieldPool),
			status,
		})
	}
	return rows
}

func positionRows(positions []model.UserPosition) [][]string {
	rows := make([][]string, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, []string{
			strconv.FormatUint(p.RoundID, 10),
			formatCoin(p.Yes),
			formatCoin(p.No),
			formatCoin(p.Total),
		})
	}
	return rows
}

func activityRows(history []model.UserActivity) [][]string {
	rows := make([][]string, 0, len(history))
	for _, a := range history {
		rows = append(rows, []string{
			formatMillis(a.TimestampMs),
			string(a.Action),
			strconv.FormatUint(a.RoundID, 10),
			formatSide(a.Side),
			formatCoin(a.Amount),
			a.Digest,
		})
	}
	return rows
}

func strategyRows(m model.StrategyMetrics) [][]string {
	return [][]string{
		{"principal vault", formatCoin(m.PrincipalVault)},
		{"deployed principal", formatCoin(m.DeployedPrincipal)},
		{"strategy yield vault", formatCoin(m.StrategyYieldVault)},
		{"round yield vault", formatCoin(m.RoundYieldVault)},
		{"total yield funded", formatCoin(m.TotalStrategyYieldFunded)},
		{"total yield allocated", formatCoin(m.TotalStrategyYieldAllocated)},
		{"apr", formatBps(m.StrategyAprBps)},
		{"last accrual", formatMillis(m.StrategyLastAccrualMs)},
		{"accrued available", formatCoin(m.StrategyAccruedAvailable)},
		{"total accrued", formatCoin(m.StrategyTotalAccrued)},
	}
}

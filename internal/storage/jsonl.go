package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"predictionScope/internal/model"
)

// Record kinds written to the JSONL export.
const (
	KindMarket   = "market"
	KindPosition = "position"
	KindActivity = "activity"
	KindWallet   = "wallet"
)

// Record is one line of the JSONL export.
type Record struct {
	Kind     string `json:"kind"`
	Owner    string `json:"owner,omitempty"`
	SyncedAt string `json:"synced_at"`
	Data     any    `json:"data"`
}

// JsonlStorage appends projections to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

var _ Storage = (*JsonlStorage)(nil)

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path, now: time.Now}
}

// PutMarkets appends one line per market.
func (s *JsonlStorage) PutMarkets(_ context.Context, markets []model.MarketState) error {
	syncedAt := s.stamp()
	records := make([]Record, 0, len(markets))
	for _, m := range markets {
		records = append(records, Record{Kind: KindMarket, SyncedAt: syncedAt, Data: m})
	}
	return s.append(records)
}

// PutPortfolio appends the owner's wallet line, then positions, then activity.
func (s *JsonlStorage) PutPortfolio(_ context.Context, portfolio model.Portfolio) error {
	syncedAt := s.stamp()
	records := make([]Record, 0, 1+len(portfolio.Positions)+len(portfolio.History))
	records = append(records, Record{
		Kind:     KindWallet,
		Owner:    portfolio.Owner,
		SyncedAt: syncedAt,
		Data: map[string]uint64{
			"wallet_balance": portfolio.WalletBalance,
			"total_staked":   portfolio.TotalStaked,
		},
	})
	for _, pos := range portfolio.Positions {
		records = append(records, Record{Kind: KindPosition, Owner: portfolio.Owner, SyncedAt: syncedAt, Data: pos})
	}
	for _, act := range portfolio.History {
		records = append(records, Record{Kind: KindActivity, Owner: portfolio.Owner, SyncedAt: syncedAt, Data: act})
	}
	return s.append(records)
}

func (s *JsonlStorage) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *JsonlStorage) append(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal %s record: %w", record.Kind, err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write %s record: %w", record.Kind, err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

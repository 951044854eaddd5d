package storage

import (
	"context"

	"predictionScope/internal/model"
)

// Storage defines a sink for exported projections.
type Storage interface {
	PutMarkets(ctx context.Context, markets []model.MarketState) error
	PutPortfolio(ctx context.Context, portfolio model.Portfolio) error
}

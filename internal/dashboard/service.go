package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Repository defines the aggregate queries behind the dashboard.
type Repository interface {
	Totals(ctx context.Context) (Totals, error)
	LowStock(ctx context.Context, threshold int) ([]LowStockProduct, error)
	CategoryCounts(ctx context.Context) ([]CategoryCount, error)
	PriceBands(ctx context.Context) (PriceBands, error)
}

// Totals are the headline counters.
type Totals struct {
	Products  int     `json:"products"`
	Suppliers int     `json:"suppliers"`
	Customers int     `json:"customers"`
	Orders    int     `json:"orders"`
	Revenue   float64 `json:"revenue"`
}

// LowStockProduct is a product running low on stock.
type LowStockProduct struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	StockQuantity int    `json:"stock_quantity"`
}

// CategoryCount is the number of products per category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// PriceBands buckets the catalog by price.
type PriceBands struct {
	Under50      int `json:"under_50"`
	From50To99   int `json:"from_50_to_99"`
	From100To199 int `json:"from_100_to_199"`
	Over200      int `json:"over_200"`
}

// Stats is the full dashboard payload.
type Stats struct {
	Totals           Totals            `json:"totals"`
	RevenueFormatted string            `json:"revenue_formatted"`
	LowStock         []LowStockProduct `json:"low_stock"`
	Categories       []CategoryCount   `json:"categories"`
	PriceBands       PriceBands        `json:"price_bands"`
}

// Service computes dashboard aggregates.
type Service struct {
	repo              Repository
	cache             *Cache
	lowStockThreshold int
	printer           *message.Printer
}

// NewService constructs the dashboard service. cache may be nil, in which
// case stats are computed on every call.
func NewService(repo Repository, cache *Cache, lowStockThreshold int) *Service {
	if lowStockThreshold <= 0 {
		lowStockThreshold = 10
	}
	return &Service{
		repo:              repo,
		cache:             cache,
		lowStockThreshold: lowStockThreshold,
		printer:           message.NewPrinter(language.English),
	}
}

// Stats returns the dashboard payload, served from cache when possible.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	if s.cache == nil {
		return s.compute(ctx)
	}

	version, err := s.cache.Version(ctx)
	if err != nil {
		// Redis being down should not take the dashboard with it.
		return s.compute(ctx)
	}

	var stats Stats
	err = s.cache.FetchJSON(ctx, s.cache.BuildKey("stats", version), &stats, func(ctx context.Context) (any, error) {
		return s.compute(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Bump invalidates cached aggregates. Safe to call with no cache configured.
func (s *Service) Bump(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Bump(ctx)
}

// compute runs the aggregate queries concurrently.
func (s *Service) compute(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		totals, err := s.repo.Totals(ctx)
		if err != nil {
			return err
		}
		stats.Totals = totals
		return nil
	})
	g.Go(func() error {
		low, err := s.repo.LowStock(ctx, s.lowStockThreshold)
		if err != nil {
			return err
		}
		stats.LowStock = low
		return nil
	})
	g.Go(func() error {
		cats, err := s.repo.CategoryCounts(ctx)
		if err != nil {
			return err
		}
		stats.Categories = cats
		return nil
	})
	g.Go(func() error {
		bands, err := s.repo.PriceBands(ctx)
		if err != nil {
			return err
		}
		stats.PriceBands = bands
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if stats.LowStock == nil {
		stats.LowStock = []LowStockProduct{}
	}
	if stats.Categories == nil {
		stats.Categories = []CategoryCount{}
	}
	stats.RevenueFormatted = s.printer.Sprintf("$%.2f", stats.Totals.Revenue)
	return &stats, nil
}

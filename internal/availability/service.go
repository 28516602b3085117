package availability

import (
	"context"
	"log/slog"
	"time"

	"github.com/prepline/prepline/internal/production"
)

// Row is the availability picture for one product.
type Row struct {
	ProductName          string `json:"product_name"`
	CurrentStock         int    `json:"current_stock"`
	CommittedOutstanding int    `json:"committed_outstanding"`
	AvailableForUse      int    `json:"available_for_scheduling"`
}

// Overview is the full availability report.
type Overview struct {
	AsOf  string `json:"as_of"`
	Items []Row  `json:"items"`
}

// RepositoryPort abstracts the availability projection query.
type RepositoryPort interface {
	Overview(ctx context.Context, asOf string) ([]Row, error)
}

// Service computes advisory availability: stock minus outstanding planned
// production, floored at zero. It never blocks scheduling decisions.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service. Cache is optional.
func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// Overview returns per-product availability as of the given day. An empty
// asOf defaults to today.
func (s *Service) Overview(ctx context.Context, asOf string) (Overview, error) {
	if asOf == "" {
		asOf = s.now().Format(production.DateLayout)
	} else {
		parsed, err := production.ParseDate(asOf)
		if err != nil {
			return Overview{}, err
		}
		asOf = parsed
	}

	key, err := s.cache.BuildKey(ctx, keyOverview(asOf)...)
	if err != nil {
		s.logger.Warn("availability cache key failed", slog.Any("error", err))
		return s.load(ctx, asOf)
	}

	var result Overview
	err = s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (interface{}, error) {
		loaded, err := s.load(ctx, asOf)
		if err != nil {
			return nil, err
		}
		return loaded, nil
	})
	if err != nil {
		return Overview{}, err
	}
	return result, nil
}

func (s *Service) load(ctx context.Context, asOf string) (Overview, error) {
	rows, err := s.repo.Overview(ctx, asOf)
	if err != nil {
		return Overview{}, err
	}
	for i := range rows {
		available := rows[i].CurrentStock - rows[i].CommittedOutstanding
		if available < 0 {
			available = 0
		}
		rows[i].AvailableForUse = available
	}
	return Overview{AsOf: asOf, Items: rows}, nil
}

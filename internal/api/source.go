package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/kurihiro0119/github-pr-metrics/internal/checkpoint"
	"github.com/kurihiro0119/github-pr-metrics/internal/config"
	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
	apperrors "github.com/kurihiro0119/github-pr-metrics/internal/errors"
	"github.com/kurihiro0119/github-pr-metrics/internal/storage"
	"github.com/kurihiro0119/github-pr-metrics/internal/storage/jsonfile"
)

// Source provides the processed data served by the API
type Source interface {
	Stats(ctx context.Context) (*domain.Stats, error)
	Details(ctx context.Context) ([]domain.PRDetail, error)
	CrawlStatus(ctx context.Context) (domain.CrawlStatus, error)
}

// fileSource reads the data directory on every call so that a new
// process run is visible without a restart
type fileSource struct {
	statsPath   string
	detailsPath string
	store       storage.Storage
}

// NewFileSource creates a Source over the files of cfg.DataDir
func NewFileSource(cfg *config.Config, store storage.Storage) Source {
	return &fileSource{
		statsPath:   cfg.StatsPath(),
		detailsPath: cfg.DetailsPath(),
		store:       store,
	}
}

func (s *fileSource) Stats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	if err := readProcessed(s.statsPath, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *fileSource) Details(ctx context.Context) ([]domain.PRDetail, error) {
	var details []domain.PRDetail
	if err := readProcessed(s.detailsPath, &details); err != nil {
		return nil, err
	}
	return details, nil
}

func (s *fileSource) CrawlStatus(ctx context.Context) (domain.CrawlStatus, error) {
	status, err := checkpoint.Status(ctx, s.store)
	if err != nil {
		return domain.CrawlStatus{}, apperrors.NewInternalError("failed to read crawl status", err)
	}
	return status, nil
}

func readProcessed(path string, v any) error {
	err := jsonfile.Read(path, v)
	if errors.Is(err, fs.ErrNotExist) {
		return apperrors.NewNotFoundError("processed data (run the process command first)", err)
	}
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to read %s", path), err)
	}
	return nil
}

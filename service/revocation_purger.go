package service

import (
	"context"
	"go-music-api/logger"
	"go-music-api/repository"
	"time"

	"github.com/sirupsen/logrus"
)

// PurgeRecorder receives the number of blacklist entries removed by a purge.
type PurgeRecorder interface {
	RecordRevocationsPurged(count int64)
}

// RevocationPurger removes blacklist entries for tokens that have expired anyway.
type RevocationPurger struct {
	repo     repository.IRevocationRepository
	interval time.Duration
	recorder PurgeRecorder
	now      func() time.Time
}

// NewRevocationPurger creates a purger that runs every interval once started.
// recorder may be nil.
func NewRevocationPurger(repo repository.IRevocationRepository, interval time.Duration, recorder PurgeRecorder) *RevocationPurger {
	return &RevocationPurger{
		repo:     repo,
		interval: interval,
		recorder: recorder,
		now:      time.Now,
	}
}

// Run performs a single purge. Running it with nothing to purge is not an error.
func (p *RevocationPurger) Run(ctx context.Context) (int64, error) {
	start := p.now()

	deleted, err := p.repo.PurgeExpired(ctx, start)
	if err != nil {
		logger.Log.WithError(err).Error("Revocation purge failed")
		return 0, err
	}

	if p.recorder != nil {
		p.recorder.RecordRevocationsPurged(deleted)
	}
	logger.Log.WithFields(logrus.Fields{
		"deleted_count": deleted,
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Info("Revocation purge completed")
	return deleted, nil
}

// Start runs a purge every interval until ctx is cancelled. It blocks.
func (p *RevocationPurger) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Revocation purger stopped")
			return
		case <-ticker.C:
			// Errors are logged in Run; the next tick retries.
			_, _ = p.Run(ctx)
		}
	}
}

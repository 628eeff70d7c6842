package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/daraw/billing-server-go/internal/repository"
)

// CleanupJob periodically sweeps expired one-time code rows.
// Redemption already deletes expired rows lazily on access; the sweep
// handles codes that are never submitted at all.
type CleanupJob struct {
	codeRepo repository.OneTimeCodeRepository
	interval time.Duration
	done     chan struct{}
}

func NewCleanupJob(codeRepo repository.OneTimeCodeRepository, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		codeRepo: codeRepo,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.codeRepo.DeleteExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup expired one-time codes")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up expired one-time codes")
	}
}

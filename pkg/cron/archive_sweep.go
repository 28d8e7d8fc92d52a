package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"propertylens_backend/pkg/logger"
	"propertylens_backend/pkg/utils/storage"
)

const sweepTimeout = 10 * time.Minute

// InitArchiveSweepCron schedules deletion of archived documents older than
// retention. The caller owns the returned scheduler and should Stop it.
func InitArchiveSweepCron(schedule string, archive storage.Archive, retention time.Duration) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		SweepArchive(archive, retention, time.Now())
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}

// StopSweep stops the scheduler and waits for a running sweep to finish.
func StopSweep(c *cron.Cron) {
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

// SweepArchive runs one retention pass.
func SweepArchive(archive storage.Archive, retention time.Duration, now time.Time) int {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	cutoff := now.Add(-retention)
	logger.Log.WithField("cutoff", cutoff.Format(time.RFC3339)).Info("Sweeping archived documents")

	deleted, err := archive.Sweep(ctx, cutoff)
	if err != nil {
		logger.Log.WithError(err).WithField("deleted", deleted).Error("Archive sweep failed")
		return deleted
	}

	logger.Log.WithField("deleted", deleted).Info("Archive sweep finished")
	return deleted
}

package jobs

import (
	"context"
	"log"
	"time"

	"folio/internal/services"
)

// SessionRetentionJob prunes chat sessions that have been idle longer than
// the retention window. Runs nightly; the Mongo TTL index on updatedAt is
// the backstop if the process is down at the scheduled time.
type SessionRetentionJob struct {
	sessions  *services.SessionStore
	retention time.Duration
}

// NewSessionRetentionJob creates the retention job
func NewSessionRetentionJob(sessions *services.SessionStore, retention time.Duration) *SessionRetentionJob {
	return &SessionRetentionJob{
		sessions:  sessions,
		retention: retention,
	}
}

// Run deletes idle sessions
func (j *SessionRetentionJob) Run(ctx context.Context) error {
	deleted, err := j.sessions.DeleteIdle(ctx, j.retention)
	if err != nil {
		return err
	}
	if deleted > 0 {
		log.Printf("🗑️  [RETENTION] Deleted %d idle chat sessions", deleted)
	}
	return nil
}

// GetNextRunTime schedules the job for the next 3 AM local time
func (j *SessionRetentionJob) GetNextRunTime() time.Time {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), 3, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

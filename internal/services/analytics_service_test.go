package services

import (
	"testing"

	"folio/internal/database"
	"folio/internal/models"
)

func TestTrackAfterCloseIsNoOp(t *testing.T) {
	s := NewAnalyticsService(&database.MongoDB{})
	s.Close()

	// A request landing mid-shutdown must be dropped, not panic the handler
	s.Track(models.PageView{Path: "/about"})
}

func TestCloseIsIdempotent(t *testing.T) {
	s := NewAnalyticsService(&database.MongoDB{})
	s.Close()
	s.Close()
}

func TestTrackWithoutDatabase(t *testing.T) {
	s := NewAnalyticsService(nil)

	// Analytics disabled: tracking is a silent no-op
	s.Track(models.PageView{Path: "/"})
	s.Close()
}

package db

import (
	"github.com/magfest/uber/internal/models"
)

// TrackingFor lists the audit rows with action recorded against the row
// fkID, newest first.
func TrackingFor(s *Session, fkID string, action int) ([]*models.Tracking, error) {
	return All[models.Tracking](s, Where("fk_id = ? AND action = ?", fkID, action), Order("-when"))
}

// LastTracking is the newest audit row with action recorded against fkID.
func LastTracking(s *Session, fkID string, action int) (*models.Tracking, error) {
	return First[models.Tracking](s, Where("fk_id = ? AND action = ?", fkID, action), Order("-when"))
}

// History lists every audit row recorded against fkID, oldest first.
func History(s *Session, fkID string) ([]*models.Tracking, error) {
	return All[models.Tracking](s, Where("fk_id = ?", fkID), Order("when"))
}

// Record writes an audit row outside of a flush, e.g. for a page view.
func (s *Session) Record(t *models.Tracking) {
	s.Add(t)
}

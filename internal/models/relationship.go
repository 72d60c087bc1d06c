package models

import (
	"time"

	"github.com/jackc/pgx/v5"
)

// RelationshipStatus represents the status of a mentoring pairing
type RelationshipStatus string

const (
	RelationshipStatusActive    RelationshipStatus = "active"
	RelationshipStatusInactive  RelationshipStatus = "inactive"
	RelationshipStatusCompleted RelationshipStatus = "completed"
)

// MentorMenteeRelationship represents an established mentoring pairing,
// created as a side effect of accepting a MentoringRequest. The
// (mentor, mentee) pair is unique.
type MentorMenteeRelationship struct {
	ID        string             `json:"id"`
	MentorID  string             `json:"mentorId"`
	MenteeID  string             `json:"menteeId"`
	Status    RelationshipStatus `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ScanRelationship scans a single PostgreSQL row into a
// MentorMenteeRelationship. Expected columns: id, mentor_id, mentee_id,
// status, created_at, updated_at
func ScanRelationship(row pgx.Row) (*MentorMenteeRelationship, error) {
	var rel MentorMenteeRelationship

	err := row.Scan(
		&rel.ID,
		&rel.MentorID,
		&rel.MenteeID,
		&rel.Status,
		&rel.CreatedAt,
		&rel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &rel, nil
}

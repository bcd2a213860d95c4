package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TargetKind discriminates what a vote or notification points at.
type TargetKind string

const (
	TargetQuestion TargetKind = "question"
	TargetAnswer   TargetKind = "answer"
)

func (k TargetKind) Valid() bool {
	return k == TargetQuestion || k == TargetAnswer
}

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Weight is the stored vote value: +1 for up, -1 for down.
func (d Direction) Weight() int {
	if d == DirectionUp {
		return 1
	}
	return -1
}

// Vote tracks one user's vote on a question or answer.
// (voter_id, target_kind, target_id) is unique.
type Vote struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VoterID    uuid.UUID  `gorm:"type:uuid;not null" json:"voter_id"`
	TargetKind TargetKind `gorm:"type:varchar(10);not null" json:"target_kind"`
	TargetID   uuid.UUID  `gorm:"type:uuid;not null" json:"target_id"`
	Value      int        `gorm:"type:smallint;not null" json:"value"` // 1 or -1
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (v Vote) Direction() Direction {
	if v.Value > 0 {
		return DirectionUp
	}
	return DirectionDown
}

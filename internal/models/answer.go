package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Answer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Body       string    `gorm:"not null" json:"body"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null" json:"question_id"`
	AuthorID   uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	IsAccepted bool      `gorm:"not null;default:false" json:"is_accepted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

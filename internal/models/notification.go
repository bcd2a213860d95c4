package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationKind string

const (
	NotificationAnswer   NotificationKind = "answer"
	NotificationAccepted NotificationKind = "accepted"
	NotificationMention  NotificationKind = "mention"
	NotificationComment  NotificationKind = "comment"
)

type Notification struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID        `gorm:"type:uuid;not null" json:"recipient_id"`
	Kind        NotificationKind `gorm:"type:varchar(20);not null" json:"kind"`
	Message     string           `gorm:"not null" json:"message"`
	QuestionID  *uuid.UUID       `gorm:"type:uuid" json:"question_id,omitempty"`
	AnswerID    *uuid.UUID       `gorm:"type:uuid" json:"answer_id,omitempty"`
	ActorID     uuid.UUID        `gorm:"type:uuid;not null" json:"actor_id"`
	IsRead      bool             `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

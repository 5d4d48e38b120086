package domain

import (
	"context"
	"time"
)

// Message is a persisted chat message. Rooms are "general" plus one room per
// referendum ("referendum-<id>"); the realtime fan-out itself lives elsewhere.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	AuthorID  string    `gorm:"size:36;index;not null" json:"authorId"`
	Room      string    `gorm:"size:64;index;not null" json:"room"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Message) TableName() string { return "messages" }

type BookingLead struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	AuthorID    string    `gorm:"size:36;index;not null" json:"authorId"`
	Date        time.Time `gorm:"index;not null" json:"date"`
	Duration    string    `gorm:"size:64;not null" json:"duration"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (BookingLead) TableName() string { return "booking_leads" }

type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	ListByRoom(ctx context.Context, room string, limit int) ([]Message, error)
	Delete(ctx context.Context, id string) error
}

type BookingLeadRepository interface {
	Create(ctx context.Context, l *BookingLead) error
	FindByID(ctx context.Context, id string) (*BookingLead, error)
	List(ctx context.Context) ([]BookingLead, error)
	Delete(ctx context.Context, id string) error
	DeleteDatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

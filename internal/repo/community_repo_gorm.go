package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"agora/internal/domain"
)

type MessageRepo struct{ db *gorm.DB }

func NewMessageRepo(db *gorm.DB) *MessageRepo { return &MessageRepo{db: db} }

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MessageRepo) ListByRoom(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []domain.Message
	err := r.db.WithContext(ctx).
		Where("room = ?", room).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	// oldest first for rendering
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, err
}

func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Message{}).Error
}

type BookingLeadRepo struct{ db *gorm.DB }

func NewBookingLeadRepo(db *gorm.DB) *BookingLeadRepo { return &BookingLeadRepo{db: db} }

func (r *BookingLeadRepo) Create(ctx context.Context, l *domain.BookingLead) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *BookingLeadRepo) FindByID(ctx context.Context, id string) (*domain.BookingLead, error) {
	var l domain.BookingLead
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &l, err
}

func (r *BookingLeadRepo) List(ctx context.Context) ([]domain.BookingLead, error) {
	var out []domain.BookingLead
	err := r.db.WithContext(ctx).Order("date desc").Find(&out).Error
	return out, err
}

func (r *BookingLeadRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.BookingLead{}).Error
}

func (r *BookingLeadRepo) DeleteDatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("date < ?", cutoff).Delete(&domain.BookingLead{})
	return res.RowsAffected, res.Error
}

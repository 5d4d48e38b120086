package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"agora/internal/domain"
)

type SuggestionRepo struct{ db *gorm.DB }

func NewSuggestionRepo(db *gorm.DB) *SuggestionRepo { return &SuggestionRepo{db: db} }

func (r *SuggestionRepo) Create(ctx context.Context, s *domain.Suggestion) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SuggestionRepo) FindByID(ctx context.Context, id string) (*domain.Suggestion, error) {
	var s domain.Suggestion
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &s, err
}

func (r *SuggestionRepo) List(ctx context.Context) ([]domain.Suggestion, error) {
	var out []domain.Suggestion
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}

func (r *SuggestionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Suggestion{}).Error
}

type ReferendumRepo struct{ db *gorm.DB }

func NewReferendumRepo(db *gorm.DB) *ReferendumRepo { return &ReferendumRepo{db: db} }

func (r *ReferendumRepo) Create(ctx context.Context, ref *domain.Referendum) error {
	return r.db.WithContext(ctx).Create(ref).Error
}

func (r *ReferendumRepo) FindByID(ctx context.Context, id string) (*domain.Referendum, error) {
	var ref domain.Referendum
	err := r.db.WithContext(ctx).First(&ref, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ref, err
}

func (r *ReferendumRepo) FindByTitle(ctx context.Context, title string) (*domain.Referendum, error) {
	var ref domain.Referendum
	err := r.db.WithContext(ctx).First(&ref, "title = ?", title).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ref, err
}

func (r *ReferendumRepo) List(ctx context.Context) ([]domain.Referendum, error) {
	var out []domain.Referendum
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}

func (r *ReferendumRepo) ListByStatus(ctx context.Context, status string) ([]domain.Referendum, error) {
	var out []domain.Referendum
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("created_at asc").Find(&out).Error
	return out, err
}

// SetStatus only moves referenda out of active, which keeps the transition
// monotonic even if two resolvers race.
func (r *ReferendumRepo) SetStatus(ctx context.Context, id, status string, endedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Referendum{}).
		Where("id = ? AND status = ?", id, domain.StatusActive).
		Updates(map[string]any{"status": status, "ended_at": endedAt}).Error
}

func (r *ReferendumRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Referendum{}).Error
}

type VoteRepo struct{ db *gorm.DB }

func NewVoteRepo(db *gorm.DB) *VoteRepo { return &VoteRepo{db: db} }

func (r *VoteRepo) Insert(ctx context.Context, v *domain.Vote) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *VoteRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Vote{}).Error
}

func (r *VoteRepo) FindByVoter(ctx context.Context, voterID, suggestionID, referendumID string) (*domain.Vote, error) {
	var v domain.Vote
	err := r.db.WithContext(ctx).
		First(&v, "voter_id = ? AND suggestion_id = ? AND referendum_id = ?", voterID, suggestionID, referendumID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &v, err
}

func (r *VoteRepo) ListBySuggestion(ctx context.Context, suggestionID string) ([]domain.Vote, error) {
	var out []domain.Vote
	err := r.db.WithContext(ctx).Where("suggestion_id = ?", suggestionID).Find(&out).Error
	return out, err
}

func (r *VoteRepo) ListByReferendum(ctx context.Context, referendumID string) ([]domain.Vote, error) {
	var out []domain.Vote
	err := r.db.WithContext(ctx).Where("referendum_id = ?", referendumID).Find(&out).Error
	return out, err
}

func (r *VoteRepo) DeleteByReferendum(ctx context.Context, referendumID string) error {
	return r.db.WithContext(ctx).Where("referendum_id = ?", referendumID).Delete(&domain.Vote{}).Error
}

type AdminVoteRepo struct{ db *gorm.DB }

func NewAdminVoteRepo(db *gorm.DB) *AdminVoteRepo { return &AdminVoteRepo{db: db} }

func (r *AdminVoteRepo) Insert(ctx context.Context, v *domain.AdminVote) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *AdminVoteRepo) DeleteByVoter(ctx context.Context, voterID string) error {
	return r.db.WithContext(ctx).Where("voter_id = ?", voterID).Delete(&domain.AdminVote{}).Error
}

func (r *AdminVoteRepo) FindByVoter(ctx context.Context, voterID string) (*domain.AdminVote, error) {
	var v domain.AdminVote
	err := r.db.WithContext(ctx).First(&v, "voter_id = ?", voterID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &v, err
}

func (r *AdminVoteRepo) CountByCandidate(ctx context.Context) (map[string]int, error) {
	type row struct {
		CandidateID string
		N           int
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.AdminVote{}).
		Select("candidate_id, count(*) as n").
		Group("candidate_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, rw := range rows {
		out[rw.CandidateID] = rw.N
	}
	return out, nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"fortuna/internal/domain"
	"fortuna/internal/models"
	"fortuna/internal/repository"
)

type ProfileInput struct {
	Nickname   string `json:"nickname"`
	BirthDate  string `json:"birth_date"` // YYYY-MM-DD
	BirthTime  string `json:"birth_time"` // HH:MM
	BirthPlace string `json:"birth_place"`
	Gender     string `json:"gender"`
	Concern    string `json:"concern"`
}

type ProfileService struct {
	profiles *repository.ProfileRepository
}

func NewProfileService(profiles *repository.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Get returns the stored profile, or an empty one for new users.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return &models.Profile{UserID: userID}, nil
	}
	return p, err
}

func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileInput) (*models.Profile, error) {
	p := &models.Profile{
		UserID:     userID,
		Nickname:   strings.TrimSpace(in.Nickname),
		BirthTime:  strings.TrimSpace(in.BirthTime),
		BirthPlace: strings.TrimSpace(in.BirthPlace),
		Gender:     strings.TrimSpace(in.Gender),
		Concern:    strings.TrimSpace(in.Concern),
	}
	switch {
	case utf8.RuneCountInString(p.Nickname) > 64:
		return nil, domain.Validationf("nickname exceeds 64 characters")
	case utf8.RuneCountInString(p.BirthPlace) > 128:
		return nil, domain.Validationf("birth_place exceeds 128 characters")
	case utf8.RuneCountInString(p.Gender) > 16:
		return nil, domain.Validationf("gender exceeds 16 characters")
	case utf8.RuneCountInString(p.Concern) > 500:
		return nil, domain.Validationf("concern exceeds 500 characters")
	}
	if d := strings.TrimSpace(in.BirthDate); d != "" {
		t, err := time.Parse(domain.DateLayout, d)
		if err != nil {
			return nil, domain.Validationf("birth_date must be YYYY-MM-DD")
		}
		if t.After(time.Now()) {
			return nil, domain.Validationf("birth_date is in the future")
		}
		p.BirthDate = &t
	}
	if p.BirthTime != "" {
		if _, err := time.Parse("15:04", p.BirthTime); err != nil {
			return nil, domain.Validationf("birth_time must be HH:MM")
		}
	}
	p.UpdatedAt = time.Now()
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return s.profiles.Get(ctx, userID)
}

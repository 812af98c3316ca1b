package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/internal/auth"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/repository"
)

// ErrSeedCredentialsMissing indicates no bootstrap admin credentials were configured.
var ErrSeedCredentialsMissing = errors.New("seed admin email and password are required")

// DefaultUniversities is the reference data loaded by a fresh seed.
var DefaultUniversities = []models.University{
	{Name: "Université Mohammed V de Rabat", Code: "UM5", City: "Rabat", Country: "Maroc"},
	{Name: "Université Hassan II de Casablanca", Code: "UH2C", City: "Casablanca", Country: "Maroc"},
	{Name: "Université Cadi Ayyad", Code: "UCA", City: "Marrakech", Country: "Maroc"},
	{Name: "Université Sidi Mohamed Ben Abdellah", Code: "USMBA", City: "Fès", Country: "Maroc"},
	{Name: "Université Ibn Tofail", Code: "UIT", City: "Kénitra", Country: "Maroc"},
}

// SeedResult reports what a seed run created.
type SeedResult struct {
	AdminCreated bool
	Universities int
}

// SeedService bootstraps an empty database. Every step is idempotent.
type SeedService interface {
	Run(ctx context.Context, adminEmail, adminPassword string, universities []models.University) (SeedResult, error)
	SeedAdmin(ctx context.Context, email, password string) (bool, error)
	SeedUniversities(ctx context.Context, items []models.University) (int, error)
}

type seedService struct {
	users        repository.UserRepository
	universities repository.UniversityRepository
	logger       zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(users repository.UserRepository, universities repository.UniversityRepository, logger zerolog.Logger) SeedService {
	return &seedService{
		users:        users,
		universities: universities,
		logger:       logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) Run(ctx context.Context, adminEmail, adminPassword string, universities []models.University) (SeedResult, error) {
	var result SeedResult

	created, err := s.SeedAdmin(ctx, adminEmail, adminPassword)
	if err != nil {
		return result, err
	}
	result.AdminCreated = created

	count, err := s.SeedUniversities(ctx, universities)
	if err != nil {
		return result, err
	}
	result.Universities = count
	return result, nil
}

// SeedAdmin creates the bootstrap administrator unless an account with that email exists.
func (s *seedService) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, ErrSeedCredentialsMissing
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		s.logger.Info().Str("email", email).Msg("admin already present, skipping")
		return false, nil
	} else if !isNotFound(err) {
		return false, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Admin",
		LastName:     "LED",
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &admin); err != nil {
		return false, err
	}
	s.logger.Info().Uint("user_id", admin.ID).Msg("admin account seeded")
	return true, nil
}

// SeedUniversities inserts the universities whose code is not yet known.
func (s *seedService) SeedUniversities(ctx context.Context, items []models.University) (int, error) {
	created := 0
	for _, item := range items {
		item.Code = strings.ToUpper(strings.TrimSpace(item.Code))
		if item.Code == "" {
			continue
		}
		if _, err := s.universities.GetByCode(ctx, item.Code); err == nil {
			continue
		} else if !isNotFound(err) {
			return created, err
		}
		university := item
		if err := s.universities.Create(ctx, &university); err != nil {
			return created, err
		}
		created++
	}
	s.logger.Info().Int("created", created).Msg("universities seeded")
	return created, nil
}

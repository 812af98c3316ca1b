package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/repository"
)

const universityListKey = "universities:all"

// UniversityService manages partner universities. Listings are served from an in-process cache.
type UniversityService interface {
	List(ctx context.Context) ([]dto.UniversityResponse, error)
	Get(ctx context.Context, id uint) (dto.UniversityResponse, error)
	Create(ctx context.Context, req dto.UniversityRequest) (dto.UniversityResponse, error)
	Update(ctx context.Context, id uint, req dto.UniversityUpdateRequest) (dto.UniversityResponse, error)
	Delete(ctx context.Context, id uint) error
}

type universityService struct {
	repo      repository.UniversityRepository
	cache     *cache.Cache
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewUniversityService constructs the university service.
func NewUniversityService(repo repository.UniversityRepository, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) UniversityService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &universityService{
		repo:      repo,
		cache:     cache.New(ttl, 2*ttl),
		validator: validate,
		logger:    logger.With().Str("component", "university_service").Logger(),
	}
}

func (s *universityService) List(ctx context.Context) ([]dto.UniversityResponse, error) {
	if cached, ok := s.cache.Get(universityListKey); ok {
		if items, ok := cached.([]dto.UniversityResponse); ok {
			return items, nil
		}
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUniversityResponses(items)
	s.cache.SetDefault(universityListKey, resp)
	return resp, nil
}

func (s *universityService) Get(ctx context.Context, id uint) (dto.UniversityResponse, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.UniversityResponse{}, mapNotFound(err, ErrUniversityNotFound)
	}
	return dto.NewUniversityResponse(u), nil
}

func (s *universityService) Create(ctx context.Context, req dto.UniversityRequest) (dto.UniversityResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return dto.UniversityResponse{}, err
	}

	if _, err := s.repo.GetByCode(ctx, req.Code); err == nil {
		return dto.UniversityResponse{}, ErrUniversityCodeTaken
	} else if !isNotFound(err) {
		return dto.UniversityResponse{}, err
	}

	u := models.University{
		Name:    req.Name,
		Code:    req.Code,
		City:    req.City,
		Country: req.Country,
		Website: req.Website,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		if isUniqueViolation(err) {
			return dto.UniversityResponse{}, ErrUniversityCodeTaken
		}
		return dto.UniversityResponse{}, err
	}

	s.cache.Delete(universityListKey)
	return dto.NewUniversityResponse(u), nil
}

func (s *universityService) Update(ctx context.Context, id uint, req dto.UniversityUpdateRequest) (dto.UniversityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UniversityResponse{}, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.UniversityResponse{}, mapNotFound(err, ErrUniversityNotFound)
	}

	updates := map[string]interface{}{}
	if req.Name != nil && *req.Name != current.Name {
		updates["name"] = *req.Name
	}
	if req.Code != nil {
		code := dto.UniversityRequest{Code: *req.Code}
		code.Normalize()
		if code.Code != current.Code {
			if other, err := s.repo.GetByCode(ctx, code.Code); err == nil && other.ID != id {
				return dto.UniversityResponse{}, ErrUniversityCodeTaken
			}
			updates["code"] = code.Code
		}
	}
	if req.City != nil && *req.City != current.City {
		updates["city"] = *req.City
	}
	if req.Country != nil && *req.Country != current.Country {
		updates["country"] = *req.Country
	}
	if req.Website != nil && *req.Website != current.Website {
		updates["website"] = *req.Website
	}
	if len(updates) == 0 {
		return dto.NewUniversityResponse(current), nil
	}

	u, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		if isUniqueViolation(err) {
			return dto.UniversityResponse{}, ErrUniversityCodeTaken
		}
		return dto.UniversityResponse{}, mapNotFound(err, ErrUniversityNotFound)
	}

	s.cache.Delete(universityListKey)
	return dto.NewUniversityResponse(u), nil
}

func (s *universityService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return mapNotFound(err, ErrUniversityNotFound)
	}

	count, err := s.repo.CountScholars(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrUniversityInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapNotFound(err, ErrUniversityNotFound)
	}

	s.cache.Delete(universityListKey)
	s.logger.Info().Uint("university_id", id).Msg("university deleted")
	return nil
}

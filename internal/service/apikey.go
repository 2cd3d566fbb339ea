package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/templui/tasktracker/internal/assistant"
	"github.com/templui/tasktracker/internal/repository"
	"github.com/templui/tasktracker/internal/tracker"
	"github.com/templui/tasktracker/internal/validation"
)

const (
	KeySourceProfile = "profile"
	KeySourceServer  = "server"
)

// ModelLister is used to check that an API key is accepted.
type ModelLister interface {
	ListModels(ctx context.Context, apiKey string) ([]string, error)
}

type APIKeyStatus struct {
	Configured bool   `json:"configured"`
	Source     string `json:"source,omitempty"`
	Masked     string `json:"masked,omitempty"`
	Valid      *bool  `json:"valid,omitempty"`
}

// APIKeyService stores the profile's own model API key.
// The server-wide key is only a fallback and is never returned.
type APIKeyService struct {
	repo     repository.LocalStorageRepository
	lister   ModelLister
	fallback string
}

func NewAPIKeyService(repo repository.LocalStorageRepository, lister ModelLister, fallback string) *APIKeyService {
	return &APIKeyService{
		repo:     repo,
		lister:   lister,
		fallback: strings.TrimSpace(fallback),
	}
}

// Key returns the profile's stored key, or "" when none is stored.
func (s *APIKeyService) Key(profileID string) (string, error) {
	key, err := s.repo.Item(profileID, apiKeyStorageKey)
	if errors.Is(err, repository.ErrItemNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load api key: %w", err)
	}
	return key, nil
}

// Resolve picks the key used for generation: the profile's, then the server's.
func (s *APIKeyService) Resolve(profileID string) (string, error) {
	key, err := s.Key(profileID)
	if err != nil {
		return "", err
	}
	if key != "" {
		return key, nil
	}
	if s.fallback != "" {
		return s.fallback, nil
	}
	return "", assistant.ErrNoAPIKey
}

func (s *APIKeyService) Status(profileID string) (*APIKeyStatus, error) {
	key, err := s.Key(profileID)
	if err != nil {
		return nil, err
	}
	switch {
	case key != "":
		return &APIKeyStatus{Configured: true, Source: KeySourceProfile, Masked: Mask(key)}, nil
	case s.fallback != "":
		return &APIKeyStatus{Configured: true, Source: KeySourceServer}, nil
	}
	return &APIKeyStatus{}, nil
}

// Set stores the trimmed key and reports whether the provider accepts it.
// The key is kept even when validation fails.
func (s *APIKeyService) Set(ctx context.Context, profileID, key string) (bool, error) {
	key = strings.TrimSpace(key)
	err := validation.ValidateAPIKey(key)
	if err != nil {
		return false, &tracker.ValidationError{Field: "apiKey", Err: err}
	}

	err = s.repo.SetItem(profileID, apiKeyStorageKey, key)
	if err != nil {
		return false, fmt.Errorf("failed to save api key: %w", err)
	}

	return s.check(ctx, key), nil
}

// Validate checks the stored key. No stored key is simply invalid.
func (s *APIKeyService) Validate(ctx context.Context, profileID string) (bool, error) {
	key, err := s.Key(profileID)
	if err != nil {
		return false, err
	}
	if key == "" {
		return false, nil
	}
	return s.check(ctx, key), nil
}

func (s *APIKeyService) Clear(profileID string) error {
	err := s.repo.RemoveItem(profileID, apiKeyStorageKey)
	if err != nil {
		return fmt.Errorf("failed to clear api key: %w", err)
	}
	return nil
}

// check is true when listing models returns at least one model.
func (s *APIKeyService) check(ctx context.Context, key string) bool {
	models, err := s.lister.ListModels(ctx, key)
	if err != nil {
		slog.Warn("api key validation failed", "error", err)
		return false
	}
	return len(models) > 0
}

// Mask keeps the last four characters of a key.
func Mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("•", len(key))
	}
	return strings.Repeat("•", 8) + key[len(key)-4:]
}

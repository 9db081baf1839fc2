package service

import (
	"context"
	"strconv"
	"sync"

	"study-assistant-bot/internal/repository"
)

// Setting keys.
const (
	SettingPremiumPrice     = "premium_price"
	SettingContactEmail     = "contact_email"
	SettingContactInstagram = "contact_instagram"
	SettingShowEmail        = "show_email"
	SettingShowInstagram    = "show_instagram"
)

// Defaults used until an admin rewrites a setting.
var settingDefaults = map[string]string{
	SettingPremiumPrice:     "10 ريال سعودي",
	SettingContactEmail:     "",
	SettingContactInstagram: "",
	SettingShowEmail:        "true",
	SettingShowInstagram:    "true",
}

// SettingsService is the cached view of the mutable key-value configuration
// (premium price string, contact info, visibility toggles). Reads come from
// an in-memory cache; a write goes to storage and invalidates the cache.
type SettingsService struct {
	repo *repository.SettingsRepository

	mu    sync.RWMutex
	cache map[string]string
}

// NewSettingsService creates a new SettingsService instance.
func NewSettingsService(repo *repository.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get retrieves a setting, falling back to its default.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	if s.cache != nil {
		value, ok := s.cache[key]
		s.mu.RUnlock()
		if ok {
			return value, nil
		}
		return settingDefaults[key], nil
	}
	s.mu.RUnlock()

	if err := s.refresh(ctx); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if value, ok := s.cache[key]; ok {
		return value, nil
	}
	return settingDefaults[key], nil
}

// GetBool retrieves a boolean setting.
func (s *SettingsService) GetBool(ctx context.Context, key string) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, nil
	}
	return value, nil
}

// Set writes a setting and invalidates the cache.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if err := s.repo.Set(ctx, key, value); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
	return nil
}

// SetBool writes a boolean setting.
func (s *SettingsService) SetBool(ctx context.Context, key string, value bool) error {
	return s.Set(ctx, key, strconv.FormatBool(value))
}

func (s *SettingsService) refresh(ctx context.Context) error {
	settings, err := s.repo.All(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache = settings
	s.mu.Unlock()
	return nil
}

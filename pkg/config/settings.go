package config

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"cafedoko/pkg/store"
)

// View modes and sort options accepted by Settings.
var (
	ViewModes   = []string{"list", "map"}
	SortOptions = []string{"recommended", "nearby", "price_low", "price_high"}
)

// ErrInvalidSetting is returned when an update carries an unknown enum value.
var ErrInvalidSetting = errors.New("invalid setting")

// Values is the user-facing settings document.
type Values struct {
	ViewMode              string `json:"view_mode"`
	SortOption            string `json:"sort_option"`
	NotifyNewCafe         bool   `json:"notify_new_cafe"`
	NotifyFavoriteOpening bool   `json:"notify_favorite_opening"`
}

// DefaultValues returns the settings used before the user changes anything.
func DefaultValues() Values {
	return Values{
		ViewMode:   "list",
		SortOption: "recommended",
	}
}

// Settings bridges static Config and the persistent state store.
type Settings struct {
	base  *Config
	store store.StateStore
}

// NewSettings creates Settings. st may be nil, in which case defaults are served.
func NewSettings(base *Config, st store.StateStore) *Settings {
	return &Settings{
		base:  base,
		store: st,
	}
}

func (s *Settings) AppConfig() *Config { return s.base }

// --- Implementations ---

func (s *Settings) ViewMode(ctx context.Context) string {
	return s.getEnum(ctx, KeyViewMode, ViewModes, DefaultValues().ViewMode)
}

func (s *Settings) SortOption(ctx context.Context) string {
	return s.getEnum(ctx, KeySortOption, SortOptions, DefaultValues().SortOption)
}

func (s *Settings) NotifyNewCafe(ctx context.Context) bool {
	return s.getBool(ctx, KeyNotifyNewCafe, false)
}

func (s *Settings) NotifyFavoriteOpening(ctx context.Context) bool {
	return s.getBool(ctx, KeyNotifyFavoriteOpening, false)
}

// Values returns the current settings document.
func (s *Settings) Values(ctx context.Context) Values {
	return Values{
		ViewMode:              s.ViewMode(ctx),
		SortOption:            s.SortOption(ctx),
		NotifyNewCafe:         s.NotifyNewCafe(ctx),
		NotifyFavoriteOpening: s.NotifyFavoriteOpening(ctx),
	}
}

// Update validates and persists v.
func (s *Settings) Update(ctx context.Context, v Values) error {
	if !slices.Contains(ViewModes, v.ViewMode) {
		return fmt.Errorf("%w: view_mode %q", ErrInvalidSetting, v.ViewMode)
	}
	if !slices.Contains(SortOptions, v.SortOption) {
		return fmt.Errorf("%w: sort_option %q", ErrInvalidSetting, v.SortOption)
	}
	if s.store == nil {
		return errors.New("settings store unavailable")
	}

	pairs := map[string]string{
		KeyViewMode:              v.ViewMode,
		KeySortOption:            v.SortOption,
		KeyNotifyNewCafe:         strconv.FormatBool(v.NotifyNewCafe),
		KeyNotifyFavoriteOpening: strconv.FormatBool(v.NotifyFavoriteOpening),
	}
	for k, val := range pairs {
		if err := s.store.SetState(ctx, k, val); err != nil {
			return fmt.Errorf("failed to save %s: %w", k, err)
		}
	}
	return nil
}

// Reset removes every stored setting.
func (s *Settings) Reset(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	for _, k := range []string{KeyViewMode, KeySortOption, KeyNotifyNewCafe, KeyNotifyFavoriteOpening} {
		if err := s.store.DeleteState(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// LastLocation returns the last persisted client location.
func (s *Settings) LastLocation(ctx context.Context) (lat, lon float64, ok bool) {
	if s.store == nil {
		return 0, 0, false
	}
	latStr, ok1 := s.store.GetState(ctx, KeyLastLocationLat)
	lonStr, ok2 := s.store.GetState(ctx, KeyLastLocationLon)
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lon, err2 := strconv.ParseFloat(lonStr, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// SaveLocation persists the client location.
func (s *Settings) SaveLocation(ctx context.Context, lat, lon float64) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.SetState(ctx, KeyLastLocationLat, strconv.FormatFloat(lat, 'f', -1, 64)); err != nil {
		return err
	}
	return s.store.SetState(ctx, KeyLastLocationLon, strconv.FormatFloat(lon, 'f', -1, 64))
}

// --- Helpers ---

func (s *Settings) getEnum(ctx context.Context, key string, allowed []string, fallback string) string {
	if s.store != nil {
		if val, ok := s.store.GetState(ctx, key); ok && slices.Contains(allowed, val) {
			return val
		}
	}
	return fallback
}

func (s *Settings) getBool(ctx context.Context, key string, fallback bool) bool {
	if s.store != nil {
		if val, ok := s.store.GetState(ctx, key); ok && val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				return b
			}
		}
	}
	return fallback
}

// Package config persists user preferences between runs: the last used
// profile, region, and resource kind, plus a short list of recently used
// regions. Environment variables and command-line overrides always win
// over persisted values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	maxRecentRegions = 6

	defaultProfile = "default"
	defaultRegion  = "us-east-1"
)

// Preferences is the on-disk shape of the config file.
type Preferences struct {
	Profile       string   `mapstructure:"profile"`
	Region        string   `mapstructure:"region"`
	LastKind      string   `mapstructure:"last_kind"`
	RecentRegions []string `mapstructure:"recent_regions"`
}

// Store loads and saves preferences at a fixed path.
type Store struct {
	v      *viper.Viper
	path   string
	logger zerolog.Logger
	prefs  Preferences
}

// DefaultPath places the config file under the user config directory,
// falling back to a dotdir in the home directory.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "spyglass", "config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".spyglass", "config.yaml")
	}
	return filepath.Join(".spyglass", "config.yaml")
}

// Open loads preferences from the default path.
func Open(logger zerolog.Logger) (*Store, error) {
	return OpenAt(DefaultPath(), logger)
}

// OpenAt loads preferences from path. A missing file yields empty
// preferences; a corrupt one is logged and discarded rather than blocking
// startup.
func OpenAt(path string, logger zerolog.Logger) (*Store, error) {
	s := &Store{v: viper.New(), path: path, logger: logger}
	s.v.SetConfigFile(path)
	s.v.SetConfigType("yaml")

	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		s.logger.Warn().Err(err).Str("path", path).Msg("config unreadable, starting fresh")
		return s, nil
	}

	if err := s.v.Unmarshal(&s.prefs); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("config malformed, starting fresh")
		s.prefs = Preferences{}
	}
	return s, nil
}

// EffectiveProfile resolves the profile to use. Priority: explicit
// override, AWS_PROFILE, persisted preference, "default".
func (s *Store) EffectiveProfile(override string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv("AWS_PROFILE"); env != "" {
		return env
	}
	if s.prefs.Profile != "" {
		return s.prefs.Profile
	}
	return defaultProfile
}

// EffectiveRegion resolves the region to use. Priority: explicit override,
// AWS_REGION, AWS_DEFAULT_REGION, persisted preference, "us-east-1".
func (s *Store) EffectiveRegion(override string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv("AWS_REGION"); env != "" {
		return env
	}
	if env := os.Getenv("AWS_DEFAULT_REGION"); env != "" {
		return env
	}
	if s.prefs.Region != "" {
		return s.prefs.Region
	}
	return defaultRegion
}

// LastKind returns the persisted resource kind, if any.
func (s *Store) LastKind() string {
	return s.prefs.LastKind
}

// RecentRegions returns recently used regions, most recent first.
func (s *Store) RecentRegions() []string {
	out := make([]string, len(s.prefs.RecentRegions))
	copy(out, s.prefs.RecentRegions)
	return out
}

// SetProfile persists the profile.
func (s *Store) SetProfile(profile string) error {
	s.prefs.Profile = profile
	return s.save()
}

// SetRegion persists the region and promotes it to the front of the
// recent list.
func (s *Store) SetRegion(region string) error {
	s.prefs.Region = region
	s.addRecentRegion(region)
	return s.save()
}

// SetLastKind persists the last viewed resource kind.
func (s *Store) SetLastKind(kind string) error {
	s.prefs.LastKind = kind
	return s.save()
}

func (s *Store) addRecentRegion(region string) {
	recent := make([]string, 0, maxRecentRegions)
	recent = append(recent, region)
	for _, r := range s.prefs.RecentRegions {
		if r == region || len(recent) == maxRecentRegions {
			continue
		}
		recent = append(recent, r)
	}
	s.prefs.RecentRegions = recent
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	s.v.Set("profile", s.prefs.Profile)
	s.v.Set("region", s.prefs.Region)
	s.v.Set("last_kind", s.prefs.LastKind)
	s.v.Set("recent_regions", s.prefs.RecentRegions)

	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

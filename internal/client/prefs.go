package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Theme is the colour scheme of the transcript.
type Theme string

const (
	ThemeCream Theme = "cream"
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// FontSize scales the transcript text.
type FontSize string

const (
	FontSmall  FontSize = "small"
	FontMedium FontSize = "medium"
	FontLarge  FontSize = "large"
)

const (
	keyTheme    = "theme"
	keyFontSize = "fontSize"
)

// Preferences persists the reader's display settings in a YAML file.
type Preferences struct {
	v    *viper.Viper
	path string
}

// DefaultPreferencesPath is <user config dir>/infogenius/preferences.yaml.
func DefaultPreferencesPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "infogenius", "preferences.yaml"), nil
}

// LoadPreferences reads path; a missing file yields the defaults
// (cream, medium). Invalid stored values fall back to the defaults too.
func LoadPreferences(path string) (*Preferences, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault(keyTheme, string(ThemeCream))
	v.SetDefault(keyFontSize, string(FontMedium))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read preferences: %w", err)
		}
	}

	p := &Preferences{v: v, path: path}
	if !validTheme(Theme(v.GetString(keyTheme))) {
		v.Set(keyTheme, string(ThemeCream))
	}
	if !validFontSize(FontSize(v.GetString(keyFontSize))) {
		v.Set(keyFontSize, string(FontMedium))
	}
	return p, nil
}

func (p *Preferences) Theme() Theme { return Theme(p.v.GetString(keyTheme)) }

func (p *Preferences) FontSize() FontSize { return FontSize(p.v.GetString(keyFontSize)) }

// SetTheme validates and stores t, then saves.
func (p *Preferences) SetTheme(t Theme) error {
	if !validTheme(t) {
		return fmt.Errorf("unknown theme %q (want cream, light or dark)", t)
	}
	p.v.Set(keyTheme, string(t))
	return p.Save()
}

// SetFontSize validates and stores s, then saves.
func (p *Preferences) SetFontSize(s FontSize) error {
	if !validFontSize(s) {
		return fmt.Errorf("unknown font size %q (want small, medium or large)", s)
	}
	p.v.Set(keyFontSize, string(s))
	return p.Save()
}

// Save writes the preferences file, creating its directory if needed.
func (p *Preferences) Save() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	if err := p.v.WriteConfigAs(p.path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

func validTheme(t Theme) bool {
	return t == ThemeCream || t == ThemeLight || t == ThemeDark
}

func validFontSize(s FontSize) bool {
	return s == FontSmall || s == FontMedium || s == FontLarge
}

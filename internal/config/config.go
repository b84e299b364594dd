package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the Lectern client configuration.
type Config struct {
	APIURL                string   `toml:"api_url" validate:"required,url"`
	SessionFile           string   `toml:"session_file" validate:"required"`
	LogFile               string   `toml:"log_file"`
	LogLevel              string   `toml:"log_level" validate:"oneof=debug info warn error"`
	ResumeDB              string   `toml:"resume_db"`
	Player                string   `toml:"player"`
	PlayerArgs            []string `toml:"player_args"`
	OnToggleFailure       string   `toml:"on_toggle_failure" validate:"oneof=revert keep"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds" validate:"gt=0,lte=300"`
}

const (
	defaultConfigPath      = "~/.config/lectern/config.toml"
	defaultAPIURL          = "http://127.0.0.1:8080/api/v1"
	defaultSessionFile     = "~/.config/lectern/session.env"
	defaultLogFile         = "~/.local/state/lectern/lectern.log"
	defaultLogLevel        = "info"
	defaultResumeDB        = "~/.local/share/lectern/resume.db"
	defaultPlayer          = "mpv"
	defaultToggleFailure   = "revert"
	defaultRequestTimeoutS = 10
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:                defaultAPIURL,
		SessionFile:           mustExpand(defaultSessionFile),
		LogFile:               mustExpand(defaultLogFile),
		LogLevel:              defaultLogLevel,
		ResumeDB:              mustExpand(defaultResumeDB),
		Player:                defaultPlayer,
		OnToggleFailure:       defaultToggleFailure,
		RequestTimeoutSeconds: defaultRequestTimeoutS,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw Config
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.SessionFile); v != "" {
		cfg.SessionFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.ResumeDB); v != "" {
		cfg.ResumeDB = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.Player); v != "" {
		cfg.Player = v
	}
	for _, arg := range raw.PlayerArgs {
		if arg = strings.TrimSpace(arg); arg != "" {
			cfg.PlayerArgs = append(cfg.PlayerArgs, arg)
		}
	}
	if v := strings.TrimSpace(raw.OnToggleFailure); v != "" {
		cfg.OnToggleFailure = strings.ToLower(v)
	}
	if raw.RequestTimeoutSeconds != 0 {
		cfg.RequestTimeoutSeconds = raw.RequestTimeoutSeconds
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RequestTimeout returns the HTTP timeout for API calls.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return defaultRequestTimeoutS * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate reports every invalid field using the TOML key names.
func (c Config) Validate() error {
	validate, trans := newValidator()
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Translate(trans))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func newValidator() (*validator.Validate, ut.Translator) {
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")

	validate := validator.New()
	_ = en_translations.RegisterDefaultTranslations(validate, trans)
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate, trans
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

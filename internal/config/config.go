// Package config resolves timeline settings from the environment, an optional .env file,
// an optional config.json in the config directory, and AWS SSM Parameter Store.
//
// Precedence (highest first): process environment, .env, config.json, defaults. Command
// line flags are applied on top by the CLI.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL      = "http://localhost:8000"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultUndoWindow  = 5 * time.Second
	DefaultLogLevel    = "warn"
)

type Config struct {
	APIURL   string
	APIToken string
	// APITokenParam names an SSM parameter holding the token. Used only when APIToken
	// is empty.
	APITokenParam string

	Dir          string
	DraftDir     string
	DraftBackend string

	UndoWindow  time.Duration
	HTTPTimeout time.Duration

	LogLevel string
	LogFile  string
}

// FileConfig is the optional <config dir>/config.json.
type FileConfig struct {
	APIURL       string `json:"apiUrl,omitempty"`
	DraftBackend string `json:"draftBackend,omitempty"`
	UndoWindow   string `json:"undoWindow,omitempty"`
	LogLevel     string `json:"logLevel,omitempty"`
}

// ParameterGetter is the subset of *ssm.Client used to resolve secrets.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type loader struct {
	envFiles []string
	ssm      ParameterGetter
	lookup   func(string) (string, bool)
}

type Option func(*loader)

// WithEnvFiles replaces the default ".env" lookup.
func WithEnvFiles(paths ...string) Option {
	return func(l *loader) { l.envFiles = paths }
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(f func(string) (string, bool)) Option {
	return func(l *loader) { l.lookup = f }
}

func WithParameterGetter(g ParameterGetter) Option {
	return func(l *loader) { l.ssm = g }
}

func Load(ctx context.Context, opts ...Option) (*Config, error) {
	l := &loader{envFiles: []string{".env"}, lookup: os.LookupEnv}
	for _, o := range opts {
		o(l)
	}

	dotenv := map[string]string{}
	for _, p := range l.envFiles {
		m, err := godotenv.Read(p)
		if err != nil {
			// A missing or unreadable .env is not an error.
			continue
		}
		for k, v := range m {
			if _, ok := dotenv[k]; !ok {
				dotenv[k] = v
			}
		}
	}
	get := func(k string) string {
		if v, ok := l.lookup(k); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(dotenv[k])
	}

	dir := get("TIMELINE_CONFIG_DIR")
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	fc, err := ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIURL:        firstNonEmpty(get("TIMELINE_API_URL"), fc.APIURL, DefaultAPIURL),
		APIToken:      get("TIMELINE_API_TOKEN"),
		APITokenParam: get("TIMELINE_API_TOKEN_SSM"),
		Dir:           dir,
		DraftDir:      firstNonEmpty(get("TIMELINE_DRAFT_DIR"), filepath.Join(dir, "drafts")),
		DraftBackend:  firstNonEmpty(get("TIMELINE_DRAFT_BACKEND"), fc.DraftBackend, "file"),
		LogLevel:      firstNonEmpty(get("LOG_LEVEL"), fc.LogLevel, DefaultLogLevel),
		LogFile:       firstNonEmpty(get("TIMELINE_LOG_FILE"), filepath.Join(dir, "timeline.log")),
	}

	cfg.UndoWindow, err = parseDuration("TIMELINE_UNDO_WINDOW", firstNonEmpty(get("TIMELINE_UNDO_WINDOW"), fc.UndoWindow), DefaultUndoWindow)
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout, err = parseDuration("TIMELINE_HTTP_TIMEOUT", get("TIMELINE_HTTP_TIMEOUT"), DefaultHTTPTimeout)
	if err != nil {
		return nil, err
	}

	if cfg.APIToken == "" && cfg.APITokenParam != "" {
		g := l.ssm
		if g == nil {
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, fmt.Errorf("load aws config: %w", err)
			}
			g = ssm.NewFromConfig(awsCfg)
		}
		tok, err := GetParameter(ctx, g, cfg.APITokenParam)
		if err != nil {
			return nil, err
		}
		cfg.APIToken = tok
	}
	return cfg, nil
}

// DefaultDir is ~/.timeline.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".timeline"), nil
}

// ReadFile loads a config.json. A missing file yields an empty config.
func ReadFile(path string) (FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FileConfig{}, nil
		}
		return FileConfig{}, err
	}
	var fc FileConfig
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// GetParameter reads a decrypted SecureString parameter.
func GetParameter(ctx context.Context, g ParameterGetter, name string) (string, error) {
	out, err := g.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s is empty", name)
	}
	return *out.Parameter.Value, nil
}

func parseDuration(name, v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", name, v)
	}
	return d, nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

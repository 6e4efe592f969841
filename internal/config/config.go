package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"ytaudio/internal/logger"
	"ytaudio/pkg/models"
)

const (
	ConfigDir  = ".ytaudio"
	ConfigFile = "ytaudio.yml"

	DefaultSearchURL = "https://www.googleapis.com/youtube/v3/search"
	DefaultExtractor = ExtractorYtDlp

	ExtractorYtDlp  = "ytdlp"
	ExtractorNative = "native"
)

func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ConfigDir), nil
}

func EnsureConfigDir() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(configDir, 0755)
}

// LoadDotEnv loads KEY=value pairs from the given files (default ".env")
// into the process environment. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
		logger.Debug("Loaded environment from %s", f)
	}
	return nil
}

func LoadConfig() (*models.Config, error) {
	if err := EnsureConfigDir(); err != nil {
		return nil, err
	}

	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, ConfigFile)
	config := &models.Config{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Create default config if it doesn't exist
		applyDefaults(config)
		return config, SaveConfig(config)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(config)
	return config, nil
}

func SaveConfig(config *models.Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, ConfigFile)
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold the API key and session cookies.
	return os.WriteFile(configPath, data, 0600)
}

// applyDefaults fills values that have no environment override. The
// extractor default is applied by MergeWithFlags so that an empty value
// still means "not set in the file".
func applyDefaults(config *models.Config) {
	if config.SearchURL == "" {
		config.SearchURL = DefaultSearchURL
	}
}

// Flags carries command line values; empty strings mean "not set".
type Flags struct {
	APIKey      string
	CookiesFile string
	Extractor   string
	YtDlpPath   string
}

// MergeWithFlags merges configuration with command line flags and environment variables
// Priority: flags > config file > environment variables
func MergeWithFlags(config *models.Config, flags Flags) {
	if flags.APIKey != "" {
		config.YouTubeAPIKey = flags.APIKey
	} else if envKey := os.Getenv("YOUTUBE_API_KEY"); envKey != "" && config.YouTubeAPIKey == "" {
		config.YouTubeAPIKey = envKey
	}

	if envBlob := os.Getenv("YOUTUBE_COOKIES"); envBlob != "" && config.CookieBlob == "" {
		config.CookieBlob = envBlob
	}

	if flags.CookiesFile != "" {
		config.CookieFile = flags.CookiesFile
	} else if envFile := os.Getenv("YOUTUBE_COOKIES_FILE"); envFile != "" && config.CookieFile == "" {
		config.CookieFile = envFile
	}

	if envDir := os.Getenv("YTAUDIO_COOKIE_DIR"); envDir != "" && config.CookieDir == "" {
		config.CookieDir = envDir
	}

	if flags.Extractor != "" {
		config.Extractor = flags.Extractor
	} else if envExtractor := os.Getenv("YTAUDIO_EXTRACTOR"); envExtractor != "" && config.Extractor == "" {
		config.Extractor = envExtractor
	}
	if config.Extractor == "" {
		config.Extractor = DefaultExtractor
	}

	if flags.YtDlpPath != "" {
		config.YtDlpPath = flags.YtDlpPath
	} else if envPath := os.Getenv("YTDLP_PATH"); envPath != "" && config.YtDlpPath == "" {
		config.YtDlpPath = envPath
	}
}

// ResolveCookieBlob reads the operator cookie file into CookieBlob when no
// blob was given inline.
func ResolveCookieBlob(config *models.Config) error {
	if strings.TrimSpace(config.CookieBlob) != "" || config.CookieFile == "" {
		return nil
	}
	data, err := os.ReadFile(config.CookieFile)
	if err != nil {
		return fmt.Errorf("failed to read cookies file: %w", err)
	}
	config.CookieBlob = string(data)
	return nil
}

func ValidateConfig(config *models.Config) error {
	switch config.Extractor {
	case ExtractorYtDlp, ExtractorNative:
	default:
		return fmt.Errorf("unknown extractor %q (expected %q or %q)", config.Extractor, ExtractorYtDlp, ExtractorNative)
	}

	if config.CookieDir != "" {
		info, err := os.Stat(config.CookieDir)
		if err != nil {
			return fmt.Errorf("cookie directory %q is not usable: %w", config.CookieDir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("cookie directory %q is not a directory", config.CookieDir)
		}
	}

	// Search degrades to an inline "API key missing" message, so this is not fatal.
	if config.YouTubeAPIKey == "" {
		logger.Warn("YouTube API key not provided (--api-key, config file, or YOUTUBE_API_KEY env var). Search will be unavailable.")
	}

	return nil
}

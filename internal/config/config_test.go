package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ytaudio/pkg/models"
)

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"YOUTUBE_API_KEY", "YOUTUBE_COOKIES", "YOUTUBE_COOKIES_FILE", "YTAUDIO_COOKIE_DIR", "YTAUDIO_EXTRACTOR", "YTDLP_PATH"} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadConfig_CreatesDefaults(t *testing.T) {
	home := withHome(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultSearchURL, cfg.SearchURL)
	assert.Empty(t, cfg.Extractor, "extractor stays unset until merged")
	assert.FileExists(t, filepath.Join(home, ConfigDir, ConfigFile))

	MergeWithFlags(cfg, Flags{})
	assert.Equal(t, DefaultExtractor, cfg.Extractor)
}

func TestLoadConfig_ReadsYAML(t *testing.T) {
	home := withHome(t)
	dir := filepath.Join(home, ConfigDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	yml := "youtube_api_key: abc\nextractor: native\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(yml), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.YouTubeAPIKey)
	assert.Equal(t, ExtractorNative, cfg.Extractor)
	assert.Equal(t, DefaultSearchURL, cfg.SearchURL)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	home := withHome(t)
	dir := filepath.Join(home, ConfigDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte("extractor: [\n"), 0o600))

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestMergeWithFlags_Priority(t *testing.T) {
	withHome(t)
	t.Setenv("YOUTUBE_API_KEY", "from-env")
	t.Setenv("YTAUDIO_EXTRACTOR", "native")

	// env fills gaps
	cfg := &models.Config{}
	MergeWithFlags(cfg, Flags{})
	assert.Equal(t, "from-env", cfg.YouTubeAPIKey)
	assert.Equal(t, ExtractorNative, cfg.Extractor)

	// config file beats env, even when it names the default
	cfg = &models.Config{YouTubeAPIKey: "from-file", Extractor: ExtractorYtDlp}
	MergeWithFlags(cfg, Flags{})
	assert.Equal(t, "from-file", cfg.YouTubeAPIKey)
	assert.Equal(t, ExtractorYtDlp, cfg.Extractor)

	// flags beat everything
	cfg = &models.Config{YouTubeAPIKey: "from-file", Extractor: ExtractorNative}
	MergeWithFlags(cfg, Flags{APIKey: "from-flag", Extractor: ExtractorYtDlp})
	assert.Equal(t, "from-flag", cfg.YouTubeAPIKey)
	assert.Equal(t, ExtractorYtDlp, cfg.Extractor)
}

func TestMergeWithFlags_ExplicitFileExtractorBeatsEnv(t *testing.T) {
	home := withHome(t)
	dir := filepath.Join(home, ConfigDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte("extractor: ytdlp\n"), 0o600))
	t.Setenv("YTAUDIO_EXTRACTOR", "native")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	MergeWithFlags(cfg, Flags{})
	assert.Equal(t, ExtractorYtDlp, cfg.Extractor)
}

func TestMergeWithFlags_DefaultExtractor(t *testing.T) {
	withHome(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	MergeWithFlags(cfg, Flags{})
	assert.Equal(t, DefaultExtractor, cfg.Extractor)

	data, err := os.ReadFile(filepath.Join(os.Getenv("HOME"), ConfigDir, ConfigFile))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "extractor", "default file leaves the extractor open to env overrides")
}

func TestResolveCookieBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte("# Netscape HTTP Cookie File\n"), 0o600))

	cfg := &models.Config{CookieFile: path}
	require.NoError(t, ResolveCookieBlob(cfg))
	assert.Equal(t, "# Netscape HTTP Cookie File\n", cfg.CookieBlob)

	inline := &models.Config{CookieBlob: "inline", CookieFile: path}
	require.NoError(t, ResolveCookieBlob(inline))
	assert.Equal(t, "inline", inline.CookieBlob)

	missing := &models.Config{CookieFile: filepath.Join(t.TempDir(), "nope.txt")}
	assert.Error(t, ResolveCookieBlob(missing))
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(&models.Config{Extractor: ExtractorYtDlp}))
	assert.NoError(t, ValidateConfig(&models.Config{Extractor: ExtractorNative, CookieDir: t.TempDir()}))
	assert.ErrorContains(t, ValidateConfig(&models.Config{Extractor: "ffmpeg"}), "unknown extractor")

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	assert.ErrorContains(t, ValidateConfig(&models.Config{Extractor: ExtractorYtDlp, CookieDir: file}), "not a directory")
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("YTAUDIO_DOTENV_PROBE", "")
	os.Unsetenv("YTAUDIO_DOTENV_PROBE")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("YTAUDIO_DOTENV_PROBE=hello\n"), 0o600))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "hello", os.Getenv("YTAUDIO_DOTENV_PROBE"))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

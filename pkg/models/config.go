package models

type Config struct {
	YouTubeAPIKey string `yaml:"youtube_api_key"`
	CookieBlob    string `yaml:"cookie_blob,omitempty"`
	CookieFile    string `yaml:"cookie_file,omitempty"`
	CookieDir     string `yaml:"cookie_dir,omitempty"`
	Extractor     string `yaml:"extractor,omitempty"`
	YtDlpPath     string `yaml:"ytdlp_path,omitempty"`
	SearchURL     string `yaml:"search_url,omitempty"`
	UserAgent     string `yaml:"user_agent,omitempty"`
}

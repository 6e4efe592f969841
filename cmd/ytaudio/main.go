package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"ytaudio/internal/config"
	"ytaudio/internal/cookies"
	"ytaudio/internal/extractor"
	"ytaudio/internal/logger"
	"ytaudio/internal/resolver"
	"ytaudio/internal/utils"
	"ytaudio/internal/web"
	"ytaudio/internal/youtube"
	"ytaudio/pkg/models"
)

var rootCmd = &cobra.Command{
	Use:   "ytaudio",
	Short: "Search YouTube and play or download the audio track",
	Long:  `ytaudio searches YouTube by keyword and resolves a video to a direct audio stream for in-browser playback or download.`,
}

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the web interface server",
	RunE:  runWeb,
}

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search for videos and print the results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [video-id-or-url]",
	Short: "Resolve a video to its best audio stream",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(resolveCmd)

	// Global flags
	rootCmd.PersistentFlags().String("api-key", "", "YouTube Data API key")
	rootCmd.PersistentFlags().String("cookies-file", "", "Netscape cookie file handed to the extractor")
	rootCmd.PersistentFlags().String("extractor", "", "Extraction backend: ytdlp or native")
	rootCmd.PersistentFlags().String("ytdlp-path", "", "Path to the yt-dlp executable")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode for detailed logging")

	webCmd.Flags().Int("port", 8000, "Port to serve the web interface on")

	searchCmd.Flags().Bool("json", false, "Print results as JSON")

	resolveCmd.Flags().Bool("download", false, "Resolve for download (sanitized title)")
	resolveCmd.Flags().Bool("json", false, "Print the result as JSON")
}

func loadAndValidateConfig(cmd *cobra.Command) (*models.Config, error) {
	// Set up debug mode first
	debug, _ := cmd.Flags().GetBool("debug")
	logger.SetDebugMode(debug)
	if logger.IsDebugMode() {
		stdr.SetVerbosity(1)
		otel.SetLogger(stdr.New(log.New(logger.Writer(), "[OTEL] ", log.LstdFlags)))
	}

	if err := config.LoadDotEnv(); err != nil {
		logger.Warn("Ignoring .env: %v", err)
	}

	logger.Debug("Loading configuration...")

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var flags config.Flags
	flags.APIKey, _ = cmd.Flags().GetString("api-key")
	flags.CookiesFile, _ = cmd.Flags().GetString("cookies-file")
	flags.Extractor, _ = cmd.Flags().GetString("extractor")
	flags.YtDlpPath, _ = cmd.Flags().GetString("ytdlp-path")

	config.MergeWithFlags(cfg, flags)

	if err := config.ResolveCookieBlob(cfg); err != nil {
		return nil, err
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	logger.Debug("Configuration loaded successfully - Extractor: %s", cfg.Extractor)
	return cfg, nil
}

func newSearchClient(cfg *models.Config) *youtube.Client {
	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return youtube.NewClient(cfg.YouTubeAPIKey, cfg.SearchURL, httpClient)
}

func newResolver(cfg *models.Config) (*resolver.Resolver, error) {
	ex, err := extractor.New(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Using %s extractor", ex.Name())
	return resolver.New(ex, cookies.NewSynthesizer(cfg.CookieBlob, cfg.CookieDir), cfg.UserAgent), nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadAndValidateConfig(cmd)
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		return err
	}

	query := strings.Join(args, " ")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	results, err := newSearchClient(cfg).Search(ctx, query)
	logger.LogOperation("search", start, err)
	if err != nil {
		if errors.Is(err, youtube.ErrAPIKeyMissing) {
			return fmt.Errorf("%w: set --api-key or YOUTUBE_API_KEY", err)
		}
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(results)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%2d. %s\n", i+1, r.Title)
		fmt.Printf("    %s  %s\n", r.ID, r.Author)
	}
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadAndValidateConfig(cmd)
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		return err
	}

	videoID, err := youtube.ExtractVideoID(args[0])
	if err != nil {
		return err
	}

	res, err := newResolver(cfg)
	if err != nil {
		return err
	}

	mode := models.ModePlayback
	if download, _ := cmd.Flags().GetBool("download"); download {
		mode = models.ModeDownload
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	audio, err := res.Resolve(ctx, videoID, mode)
	logger.LogOperation("resolve "+videoID, start, err)
	if err != nil {
		return err
	}
	if mode == models.ModeDownload {
		audio.Title = utils.SanitizeFilename(audio.Title)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(audio)
	}

	fmt.Printf("Title:        %s\n", audio.Title)
	fmt.Printf("Format:       %s (%.0f kbps)\n", audio.Ext, audio.ABR)
	fmt.Printf("Content-Type: %s\n", audio.ContentType)
	fmt.Printf("URL:          %s\n", audio.URL)
	return nil
}

func runWeb(cmd *cobra.Command, args []string) error {
	logger.Info("Starting web interface server")

	// Load and validate configuration
	cfg, err := loadAndValidateConfig(cmd)
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		return err
	}

	// Get port from flag
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		logger.Error("Invalid port specified: %v", err)
		return fmt.Errorf("invalid port: %w", err)
	}

	logger.Debug("Web server configuration - Port: %d", port)

	res, err := newResolver(cfg)
	if err != nil {
		return err
	}

	server, err := web.NewServer(cfg, port, newSearchClient(cfg), res)
	if err != nil {
		return err
	}

	// Handle interrupt signals
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for either interrupt signal or server error
	select {
	case <-signalChan:
		logger.Info("Received interrupt signal, shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Stop(shutdownCtx); err != nil {
			logger.Error("Error during shutdown: %v", err)
			return err
		}
		logger.Info("Server shut down gracefully")
		return nil

	case err := <-serverErr:
		logger.Error("Server error: %v", err)
		return fmt.Errorf("server error: %w", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

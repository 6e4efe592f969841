// Package resolver turns a video id into a single direct audio URL.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ytaudio/internal/cookies"
	"ytaudio/internal/extractor"
	"ytaudio/internal/logger"
	"ytaudio/internal/utils"
	"ytaudio/internal/youtube"
	"ytaudio/pkg/models"
)

const (
	// FormatPreference is handed to the extractor for both playback and download.
	FormatPreference = "bestaudio[ext=m4a]/bestaudio[ext=mp3]/bestaudio"

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

var (
	ErrExtractionFailed = errors.New("extraction failed")
	ErrNoAudioStream    = errors.New("no audio stream found")
	ErrNoAudioURL       = errors.New("no audio URL found")
)

type Resolver struct {
	extractor extractor.Extractor
	cookies   *cookies.Synthesizer
	userAgent string
}

func New(ex extractor.Extractor, synth *cookies.Synthesizer, userAgent string) *Resolver {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Resolver{
		extractor: ex,
		cookies:   synth,
		userAgent: userAgent,
	}
}

// Resolve extracts the video's renditions and picks the best audio-only one.
// Nothing is cached; every call runs a fresh extraction.
func (r *Resolver) Resolve(ctx context.Context, videoID string, mode models.Mode) (*models.ResolvedAudio, error) {
	start := time.Now()

	artifact, err := r.cookies.Synthesize()
	if err != nil {
		return nil, err
	}
	if artifact.Synthetic {
		logger.Debug("Using %d placeholder cookies from %s", len(artifact.Cookies), artifact.Path)
	} else {
		logger.Debug("Using operator cookies from %s", artifact.Path)
	}
	defer func() {
		if cerr := artifact.Close(); cerr != nil {
			logger.Warn("Failed to remove cookie file %s: %v", artifact.Path, cerr)
		}
	}()

	req := extractor.Request{
		VideoURL:            youtube.WatchURL(videoID),
		Format:              FormatPreference,
		Headers:             map[string]string{"User-Agent": r.userAgent},
		CookieFile:          artifact.Path,
		NoCheckCertificates: true,
	}

	info, err := r.extractor.Extract(ctx, req)
	if err == nil && info == nil {
		err = extractor.ErrEmptyResult
	}
	if err != nil {
		logger.LogExtraction(r.extractor.Name(), videoID, 0, err)
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	logger.LogExtraction(r.extractor.Name(), videoID, len(info.Renditions), nil)

	best, err := SelectBestAudio(info.Renditions)
	if err != nil {
		return nil, err
	}
	if best.URL == "" {
		return nil, ErrNoAudioURL
	}

	title := info.Title
	if title == "" {
		title = mode.DefaultTitle()
	}

	logger.Debug("Resolved %s (%s) to format %s at %.0fkbps in %v",
		videoID, mode, best.FormatID, best.ABR, time.Since(start))

	return &models.ResolvedAudio{
		VideoID:     videoID,
		URL:         best.URL,
		Title:       title,
		Thumbnail:   info.Thumbnail,
		ContentType: utils.ContentTypeForExt(best.Ext),
		Ext:         best.Ext,
		ABR:         best.ABR,
	}, nil
}

// IsAudioEligible reports whether r is an audio-only stream. The video codec
// must be reported as "none"; an unreported one may still be a muxed stream.
// An unreported audio codec only rules r out when it is explicitly "none".
func IsAudioEligible(r models.Rendition) bool {
	return r.ACodec != "none" && r.VCodec == "none"
}

// SelectBestAudio returns the audio-only rendition with the highest bitrate.
// On ties the earliest one wins.
func SelectBestAudio(renditions []models.Rendition) (models.Rendition, error) {
	var (
		best  models.Rendition
		found bool
	)
	for _, r := range renditions {
		if !IsAudioEligible(r) {
			continue
		}
		if !found || r.ABR > best.ABR {
			best = r
			found = true
		}
	}
	if !found {
		return models.Rendition{}, ErrNoAudioStream
	}
	return best, nil
}

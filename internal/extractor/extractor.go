// Package extractor resolves a video URL into its available renditions.
//
// Two backends exist: the yt-dlp binary (driven through go-ytdlp) and a
// pure Go client. Both only read metadata and never download media bytes.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"ytaudio/internal/config"
	"ytaudio/pkg/models"
)

// ErrEmptyResult is returned when the backend answered but produced nothing usable.
var ErrEmptyResult = errors.New("extractor returned no usable result")

// Request is everything a backend needs for one extraction.
type Request struct {
	VideoURL            string
	Format              string
	Headers             map[string]string
	CookieFile          string
	NoCheckCertificates bool
}

// Info is the typed result of a successful extraction.
type Info struct {
	ID         string
	Title      string
	Thumbnail  string
	Renditions []models.Rendition
}

type Extractor interface {
	Name() string
	Extract(ctx context.Context, req Request) (*Info, error)
}

// New picks the backend named in the configuration.
func New(cfg *models.Config) (Extractor, error) {
	switch cfg.Extractor {
	case config.ExtractorYtDlp, "":
		return NewYtDlp(cfg.YtDlpPath), nil
	case config.ExtractorNative:
		return NewNative(), nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", cfg.Extractor)
	}
}

// flexFloat accepts numbers, numeric strings and null. Anything else decodes as 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			v = 0
		}
		*f = flexFloat(v)
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		v = 0
	}
	*f = flexFloat(v)
	return nil
}

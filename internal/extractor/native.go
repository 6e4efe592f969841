package extractor

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"ytaudio/internal/cookies"
	"ytaudio/internal/logger"
	"ytaudio/pkg/models"
)

var cookieOrigin = &url.URL{Scheme: "https", Host: "www.youtube.com", Path: "/"}

// Native extracts with the pure Go youtube client. It needs no external binary.
type Native struct {
	base    http.RoundTripper
	timeout time.Duration
}

func NewNative() *Native {
	return &Native{timeout: 30 * time.Second}
}

func (n *Native) Name() string { return "native" }

// headerTransport sets fixed request headers on every outgoing request.
type headerTransport struct {
	headers map[string]string
	next    http.RoundTripper
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	return t.next.RoundTrip(r)
}

func (n *Native) httpClient(req Request) (*http.Client, error) {
	base := n.base
	if base == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if req.NoCheckCertificates {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		base = tr
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if req.CookieFile != "" {
		parsed, err := cookies.ParseFile(req.CookieFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load cookies: %w", err)
		}
		jar.SetCookies(cookieOrigin, parsed)
	}

	return &http.Client{
		Timeout:   n.timeout,
		Jar:       jar,
		Transport: otelhttp.NewTransport(&headerTransport{headers: req.Headers, next: base}),
	}, nil
}

func (n *Native) Extract(ctx context.Context, req Request) (*Info, error) {
	hc, err := n.httpClient(req)
	if err != nil {
		return nil, err
	}
	client := youtube.Client{HTTPClient: hc}

	video, err := client.GetVideoContext(ctx, req.VideoURL)
	if err != nil {
		return nil, fmt.Errorf("fetching video metadata: %w", err)
	}

	info := &Info{
		ID:         video.ID,
		Title:      video.Title,
		Thumbnail:  largestThumbnail(video.Thumbnails),
		Renditions: make([]models.Rendition, 0, len(video.Formats)),
	}

	for i := range video.Formats {
		f := &video.Formats[i]
		r := toRendition(f)
		// Ciphered formats carry no URL until the signature is solved.
		if r.URL == "" && r.HasAudio() {
			streamURL, err := client.GetStreamURLContext(ctx, video, f)
			if err != nil {
				logger.Debug("native: no stream URL for itag %d: %v", f.ItagNo, err)
			} else {
				r.URL = streamURL
			}
		}
		info.Renditions = append(info.Renditions, r)
	}

	return info, nil
}

func toRendition(f *youtube.Format) models.Rendition {
	r := models.Rendition{
		FormatID: fmt.Sprintf("%d", f.ItagNo),
		URL:      f.URL,
		ACodec:   "none",
		VCodec:   "none",
	}

	mediaType, params, err := mime.ParseMediaType(f.MimeType)
	if err != nil {
		return r
	}
	r.Ext = extForMediaType(mediaType)

	var codecs []string
	for _, c := range strings.Split(params["codecs"], ",") {
		if c = strings.TrimSpace(c); c != "" {
			codecs = append(codecs, c)
		}
	}

	switch {
	case strings.HasPrefix(mediaType, "audio/"):
		if len(codecs) > 0 {
			r.ACodec = codecs[0]
		} else {
			r.ACodec = r.Ext
		}
	case strings.HasPrefix(mediaType, "video/"):
		if len(codecs) > 0 {
			r.VCodec = codecs[0]
		}
		if len(codecs) > 1 {
			r.ACodec = codecs[1]
		} else if f.AudioChannels > 0 && len(codecs) == 0 {
			r.ACodec = "unknown"
		}
	}

	if r.HasAudio() {
		br := f.AverageBitrate
		if br <= 0 {
			br = f.Bitrate
		}
		r.ABR = float64(br) / 1000
	}
	return r
}

func extForMediaType(mediaType string) string {
	switch mediaType {
	case "audio/mp4":
		return "m4a"
	case "audio/mpeg":
		return "mp3"
	case "video/3gpp":
		return "3gp"
	}
	if _, sub, ok := strings.Cut(mediaType, "/"); ok {
		return sub
	}
	return ""
}

func largestThumbnail(thumbs youtube.Thumbnails) string {
	best := ""
	var bestWidth uint
	for _, t := range thumbs {
		if best == "" || t.Width > bestWidth {
			best = t.URL
			bestWidth = t.Width
		}
	}
	return best
}

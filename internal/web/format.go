package web

import (
	"mime"
	"net/http"
	"strings"

	"ytaudio/internal/utils"
	"ytaudio/pkg/models"
)

const (
	// ProxyChunkSize is the read size used when relaying media bytes.
	ProxyChunkSize = 8 * 1024
	// ProxyContentType is what proxied downloads are served as, whatever the source container.
	ProxyContentType = "audio/mpeg"
)

func NewPlayerView(a *models.ResolvedAudio) PlayerView {
	return PlayerView{
		URL:       a.URL,
		Title:     a.Title,
		Thumbnail: a.Thumbnail,
	}
}

func NewDownloadResponse(a *models.ResolvedAudio) DownloadResponse {
	contentType := a.ContentType
	if contentType == "" {
		contentType = utils.ContentTypeForExt(a.Ext)
	}
	return DownloadResponse{
		URL:         a.URL,
		Title:       utils.SanitizeFilename(a.Title),
		ContentType: contentType,
	}
}

// wantsJSON reports whether the client asked for a JSON body, either with
// ?format=json or an Accept header naming application/json.
func wantsJSON(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "json") {
		return true
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "application/json" {
			return true
		}
	}
	return false
}

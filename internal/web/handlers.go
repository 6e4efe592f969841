package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docker/go-units"
	"ytaudio/internal/logger"
	"ytaudio/internal/resolver"
	"ytaudio/internal/utils"
	"ytaudio/internal/youtube"
	"ytaudio/pkg/models"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", nil)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	view := ResultsView{
		Query:   strings.TrimSpace(r.URL.Query().Get("q")),
		Results: []models.SearchResultItem{},
	}

	if view.Query == "" {
		view.Error = "Query is required"
	} else {
		results, err := s.searcher.Search(r.Context(), view.Query)
		switch {
		case errors.Is(err, youtube.ErrAPIKeyMissing):
			view.Error = "API key missing"
		case err != nil:
			logger.Error("Search failed: %v", err)
			view.Error = "Search failed"
		default:
			view.Results = results
		}
	}

	if wantsJSON(r) {
		if view.Error != "" {
			s.writeJSON(w, http.StatusOK, NewErrorResponse(view.Error))
			return
		}
		s.writeJSON(w, http.StatusOK, NewSuccessResponse(view.Results))
		return
	}

	s.render(w, http.StatusOK, "_results.html", view)
}

func (s *Server) videoID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := youtube.ExtractVideoID(r.PathValue("video_id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid video ID")
		return "", false
	}
	return id, true
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id, ok := s.videoID(w, r)
	if !ok {
		return
	}

	audio, err := s.resolver.Resolve(r.Context(), id, models.ModePlayback)
	if err != nil {
		logger.Error("Stream failed for %s: %v", id, err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("HX-Trigger", "playerLoaded")
	s.render(w, http.StatusOK, "_player.html", NewPlayerView(audio))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := s.videoID(w, r)
	if !ok {
		return
	}

	audio, err := s.resolver.Resolve(r.Context(), id, models.ModeDownload)
	if err != nil {
		logger.Error("Download failed for %s: %v", id, err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if wantsJSON(r) {
		s.writeJSON(w, http.StatusOK, NewDownloadResponse(audio))
		return
	}

	s.proxyAudio(w, r, audio)
}

// proxyAudio relays the media bytes to the client as an mp3 attachment.
func (s *Server) proxyAudio(w http.ResponseWriter, r *http.Request, audio *models.ResolvedAudio) {
	start := time.Now()

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, audio.URL, nil)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Download failed: %v", err))
		return
	}
	userAgent := s.config.UserAgent
	if userAgent == "" {
		userAgent = resolver.DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.media.Do(req)
	if err != nil {
		logger.Error("Download failed for %s: %v", audio.VideoID, err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Download failed: %v", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error("Download failed for %s: media host returned %d", audio.VideoID, resp.StatusCode)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Download failed: media host returned status %d", resp.StatusCode))
		return
	}

	w.Header().Set("Content-Type", ProxyContentType)
	w.Header().Set("Content-Disposition", utils.AttachmentDisposition(audio.Title))
	w.WriteHeader(http.StatusOK)

	n, err := copyChunks(w, resp.Body)
	if err != nil {
		logger.Warn("Download of %s interrupted after %s: %v", audio.VideoID, units.HumanSize(float64(n)), err)
		return
	}
	logger.Info("Proxied %s for %s in %v", units.HumanSize(float64(n)), audio.VideoID, time.Since(start))
}

// copyChunks copies src to w in ProxyChunkSize pieces, flushing after each.
func copyChunks(w http.ResponseWriter, src io.Reader) (int64, error) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, ProxyChunkSize)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

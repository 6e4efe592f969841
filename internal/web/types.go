package web

import (
	"ytaudio/pkg/models"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ResultsView feeds _results.html.
type ResultsView struct {
	Query   string
	Results []models.SearchResultItem
	Error   string
}

// PlayerView feeds _player.html.
type PlayerView struct {
	URL       string
	Title     string
	Thumbnail string
}

type DownloadResponse struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
}

func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
	}
}

func NewErrorResponse(err string) APIResponse {
	return APIResponse{
		Success: false,
		Error:   err,
	}
}

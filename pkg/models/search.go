package models

// SearchResultItem is one video found by a keyword search.
type SearchResultItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Author    string `json:"author"`
}

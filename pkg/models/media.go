package models

// Mode selects how a resolved audio track is going to be consumed.
type Mode int

const (
	ModePlayback Mode = iota
	ModeDownload
)

func (m Mode) String() string {
	switch m {
	case ModePlayback:
		return "playback"
	case ModeDownload:
		return "download"
	default:
		return "unknown"
	}
}

// DefaultTitle is used when the extractor reports no title.
func (m Mode) DefaultTitle() string {
	if m == ModeDownload {
		return "audio"
	}
	return "Unknown Title"
}

// Rendition is one candidate stream returned by the extractor.
// URLs are signed and expire server-side.
type Rendition struct {
	FormatID string  `json:"format_id"`
	URL      string  `json:"url"`
	Ext      string  `json:"ext"`
	ACodec   string  `json:"acodec"`
	VCodec   string  `json:"vcodec"`
	ABR      float64 `json:"abr"` // kbit/s, 0 when unknown
}

// HasAudio reports whether the rendition carries an audio codec.
func (r Rendition) HasAudio() bool {
	return r.ACodec != "" && r.ACodec != "none"
}

// HasVideo reports whether the rendition carries a video codec.
func (r Rendition) HasVideo() bool {
	return r.VCodec != "" && r.VCodec != "none"
}

type ResolvedAudio struct {
	VideoID     string  `json:"video_id"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Thumbnail   string  `json:"thumbnail"`
	ContentType string  `json:"content_type"`
	Ext         string  `json:"ext"`
	ABR         float64 `json:"abr"`
}

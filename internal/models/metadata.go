package models

const (
	DefaultTitle    = "Unknown Title"
	DefaultUploader = "Unknown"
)

// Metadata is fetched once at job creation and immutable afterwards.
type Metadata struct {
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
	Uploader  string   `json:"uploader"`
	ViewCount *int64   `json:"view_count,omitempty"`
}

// ApplyDefaults fills missing optional fields with the documented placeholders.
func (m *Metadata) ApplyDefaults() {
	if m.Title == "" {
		m.Title = DefaultTitle
	}
	if m.Uploader == "" {
		m.Uploader = DefaultUploader
	}
}

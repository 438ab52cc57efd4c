package core

// SearchResult is a single catalogue entry returned by a provider site.
// Fields map to the vod_* records Apple CMS V10 APIs return; Episodes holds
// the playable stream URLs extracted from vod_play_url.
type SearchResult struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Poster     string   `json:"poster"`
	Episodes   []string `json:"episodes"`
	Source     string   `json:"source"`
	SourceName string   `json:"source_name"`
	Class      string   `json:"class,omitempty"`
	Year       string   `json:"year"`
	Desc       string   `json:"desc,omitempty"`
	TypeName   string   `json:"type_name,omitempty"`
}

// UserSettings holds the per-user preferences persisted by the storage layer.
type UserSettings struct {
	FilterAdultContent bool   `json:"filter_adult_content"`
	Theme              string `json:"theme,omitempty"`
	AutoPlay           bool   `json:"auto_play"`
}

// DefaultUserSettings returns the settings applied to unknown users.
// Adult content filtering defaults to on.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		FilterAdultContent: true,
		Theme:              "auto",
		AutoPlay:           false,
	}
}

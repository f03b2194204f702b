package upstream

import "time"

// Sort orders accepted by the search endpoint.
const (
	SortNewest   = "newest"
	SortTrending = "trending"
)

// SearchParams are the query parameters of Search. Zero values are omitted.
type SearchParams struct {
	Query   string
	Genre   string
	Sort    string
	Page    int
	PerPage int
}

// Item is one entry of a search listing.
type Item struct {
	ID            string   `json:"id"`
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Kind          string   `json:"type"`
	Description   string   `json:"description"`
	Genres        []string `json:"genres"`
	Year          int      `json:"year"`
	PosterURL     string   `json:"posterUrl"`
	BackgroundURL string   `json:"backgroundUrl"`
}

type searchResponse struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
}

// VideoData is the full payload of a franchise: its listing fields plus every video.
type VideoData struct {
	Item
	Runtime string  `json:"runtime"`
	Videos  []Video `json:"videos"`
}

// Video is a single episode or movie file.
type Video struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	FileName     string      `json:"fileName"`
	Season       int         `json:"season"`
	Episode      int         `json:"episode"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	Released     time.Time   `json:"released"`
	Premium      bool        `json:"premium"`
	Streams      []RawStream `json:"streams"`
}

// RawStream is a playable URL as the upstream describes it.
type RawStream struct {
	URL     string `json:"url"`
	Quality string `json:"quality"`
	Label   string `json:"label"`
	Premium bool   `json:"premium"`
}

// StreamDetails is the answer of the authenticated stream endpoint.
type StreamDetails struct {
	Streams []RawStream `json:"streams"`
}

// User is the account attached to a login.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPremium bool   `json:"isPremium"`
}

// LoginResult is returned by Login. ExpiresAt is in unix seconds.
type LoginResult struct {
	SessionToken string `json:"sessionToken"`
	ExpiresAt    int64  `json:"expiresAt"`
	User         User   `json:"user"`
}

// Image is a fetched binary artwork.
type Image struct {
	Bytes       []byte `json:"bytes"`
	ContentType string `json:"contentType"`
}

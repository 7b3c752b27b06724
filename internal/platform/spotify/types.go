package spotify

// Artist matches the simplified artist object.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Album matches the simplified album object returned by search and artist albums.
type Album struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	AlbumType            string   `json:"album_type"` // album, single, compilation
	AlbumGroup           string   `json:"album_group"`
	TotalTracks          int      `json:"total_tracks"`
	ReleaseDate          string   `json:"release_date"`
	ReleaseDatePrecision string   `json:"release_date_precision"`
	Artists              []Artist `json:"artists"`
	Images               []Image  `json:"images"`
	ExternalURLs         struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

const (
	AlbumTypeAlbum       = "album"
	AlbumTypeSingle      = "single"
	AlbumTypeCompilation = "compilation"
)

type page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Limit int `json:"limit"`
}

// searchResponse matches /v1/search for type=artist or type=album.
type searchResponse struct {
	Artists *page[Artist] `json:"artists"`
	Albums  *page[Album]  `json:"albums"`
}

package plex

// container is the envelope Plex wraps around every JSON response.
type container struct {
	MediaContainer struct {
		MachineIdentifier string     `json:"machineIdentifier,omitempty"`
		Size              int        `json:"size"`
		Directory         []Section  `json:"Directory,omitempty"`
		Metadata          []Video    `json:"Metadata,omitempty"`
	} `json:"MediaContainer"`
}

// playlistContainer is the envelope for playlist listings and creation results.
type playlistContainer struct {
	MediaContainer struct {
		Size     int        `json:"size"`
		Metadata []Playlist `json:"Metadata,omitempty"`
	} `json:"MediaContainer"`
}

// Section is a typed sub-collection of the library (e.g. "Movies", "TV Shows").
type Section struct {
	Key   string `json:"key"`
	Type  string `json:"type"` // movie, show, artist, photo
	Title string `json:"title"`
}

// Tag is Plex's wrapper for directors, roles, genres and countries.
type Tag struct {
	Tag string `json:"tag"`
}

// Video is a video item in the library: a movie, or any playable entry
// inside a playlist. Rating keys are decimal strings on the wire.
type Video struct {
	RatingKey     int    `json:"ratingKey,string"`
	Title         string `json:"title"`
	Type          string `json:"type"` // movie, episode, clip
	Year          int    `json:"year,omitempty"`
	Summary       string `json:"summary,omitempty"`
	Duration      int64  `json:"duration,omitempty"` // milliseconds
	ContentRating string `json:"contentRating,omitempty"`
	Studio        string `json:"studio,omitempty"`
	AddedAt       int64  `json:"addedAt,omitempty"` // unix seconds
	Directors     []Tag  `json:"Director,omitempty"`
	Roles         []Tag  `json:"Role,omitempty"`
	Genres        []Tag  `json:"Genre,omitempty"`
	Countries     []Tag  `json:"Country,omitempty"`
}

// Playlist is a playlist record. LeafCount is the item count maintained by
// the server; Duration is the summed item duration in milliseconds.
type Playlist struct {
	RatingKey int    `json:"ratingKey,string"`
	Title     string `json:"title"`
	Type      string `json:"type"` // playlist
	Summary   string `json:"summary,omitempty"`
	LeafCount int    `json:"leafCount"`
	Duration  int64  `json:"duration,omitempty"`
	AddedAt   int64  `json:"addedAt,omitempty"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

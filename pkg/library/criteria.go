// Package library implements the catalog operations exposed as MCP tools:
// search-filter translation, key resolution, and the formatting/error
// contract every operation shares.
package library

import "strconv"

// SearchCriteria captures an intent to find movies. Every field is optional;
// an empty criteria matches all movies. Fields compose as independent AND-ed
// constraints once translated.
type SearchCriteria struct {
	Title       string `json:"title,omitempty"`
	Year        *int   `json:"year,omitempty"`
	Director    string `json:"director,omitempty"`
	Studio      string `json:"studio,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Actor       string `json:"actor,omitempty"`
	Rating      string `json:"rating,omitempty"`
	Country     string `json:"country,omitempty"`
	Language    string `json:"language,omitempty"`
	Watched     *bool  `json:"watched,omitempty"`      // true = only watched, false = only unwatched
	MinDuration *int   `json:"min_duration,omitempty"` // minutes
	MaxDuration *int   `json:"max_duration,omitempty"` // minutes
}

// Filters translates the criteria into Plex query parameters. The result
// always carries the movie type discriminator; each populated field
// contributes exactly one entry. Plex wants duration bounds in milliseconds
// and an "unwatched" flag, so minutes are scaled by 60000 and the watched
// tri-state is inverted.
func (c SearchCriteria) Filters() map[string]string {
	filters := map[string]string{"libtype": "movie"}

	setString := func(key, value string) {
		if value != "" {
			filters[key] = value
		}
	}

	setString("title", c.Title)
	setString("director", c.Director)
	setString("studio", c.Studio)
	setString("genre", c.Genre)
	setString("actor", c.Actor)
	setString("rating", c.Rating)
	setString("country", c.Country)
	setString("language", c.Language)

	if c.Year != nil {
		filters["year"] = strconv.Itoa(*c.Year)
	}
	if c.Watched != nil {
		if *c.Watched {
			filters["unwatched"] = "0"
		} else {
			filters["unwatched"] = "1"
		}
	}
	if c.MinDuration != nil {
		filters["minDuration"] = strconv.Itoa(*c.MinDuration * 60000)
	}
	if c.MaxDuration != nil {
		filters["maxDuration"] = strconv.Itoa(*c.MaxDuration * 60000)
	}

	return filters
}

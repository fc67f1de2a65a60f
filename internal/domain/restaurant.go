package domain

import (
	"fmt"
	"strings"
)

// Source records where a restaurant came from. It is set once at construction.
type Source uint8

const (
	SourceLocal Source = iota + 1
	SourceRemote
	SourceUserGenerated
	SourceSearchResult
)

var sourceNames = map[Source]string{
	SourceLocal:         "local",
	SourceRemote:        "remote",
	SourceUserGenerated: "user",
	SourceSearchResult:  "search",
}

func (s Source) String() string {
	if n, ok := sourceNames[s]; ok {
		return n
	}
	return fmt.Sprintf("source(%d)", uint8(s))
}

func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Source) UnmarshalText(b []byte) error {
	for k, n := range sourceNames {
		if strings.EqualFold(n, string(b)) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown source %q", string(b))
}

type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coords) String() string { return fmt.Sprintf("%f,%f", c.Lat, c.Lng) }

// Bounds is a map viewport given by its south-west and north-east corners.
type Bounds struct {
	SW Coords `json:"sw"`
	NE Coords `json:"ne"`
}

// Contains reports whether c lies inside b, edges included. A viewport whose
// west edge is east of its east edge spans the antimeridian.
func (b Bounds) Contains(c Coords) bool {
	if c.Lat < b.SW.Lat || c.Lat > b.NE.Lat {
		return false
	}
	if b.SW.Lng <= b.NE.Lng {
		return c.Lng >= b.SW.Lng && c.Lng <= b.NE.Lng
	}
	return c.Lng >= b.SW.Lng || c.Lng <= b.NE.Lng
}

func (b Bounds) Center() Coords {
	lng := (b.SW.Lng + b.NE.Lng) / 2
	if b.SW.Lng > b.NE.Lng {
		lng += 180
		if lng > 180 {
			lng -= 360
		}
	}
	return Coords{Lat: (b.SW.Lat + b.NE.Lat) / 2, Lng: lng}
}

type Restaurant struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Address        string              `json:"address"`
	Coords         Coords              `json:"coords"`
	AverageRating  float64             `json:"averageRating"`
	TotalRatings   uint32              `json:"totalRatings"`
	Reviews        []Review            `json:"reviews"`
	RatingStars    [maxStars]StarGlyph `json:"ratingStars"`
	PhotoReference string              `json:"photoReference,omitempty"`
	CustomImage    string              `json:"customImage,omitempty"`
	Source         Source              `json:"source"`
}

// Clone returns a copy that shares no review storage with r.
func (r Restaurant) Clone() Restaurant {
	out := r
	if r.Reviews != nil {
		out.Reviews = make([]Review, len(r.Reviews))
		copy(out.Reviews, r.Reviews)
	}
	return out
}

// RestaurantInput is what a user submits when adding a restaurant on the map.
type RestaurantInput struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	CustomImage string  `json:"customImage"`
}

package domain

// Shapes below mirror the places web service payloads.

type Place struct {
	PlaceID          string       `json:"place_id"`
	Name             string       `json:"name"`
	Vicinity         string       `json:"vicinity"`
	Geometry         Geometry     `json:"geometry"`
	Rating           float64      `json:"rating"`
	UserRatingsTotal uint32       `json:"user_ratings_total"`
	Photos           []PlacePhoto `json:"photos"`
}

type Geometry struct {
	Location Coords `json:"location"`
}

type PlacePhoto struct {
	PhotoReference string `json:"photo_reference"`
	Height         int    `json:"height"`
	Width          int    `json:"width"`
}

type PlaceDetails struct {
	PlaceID string        `json:"place_id"`
	Reviews []PlaceReview `json:"reviews"`
}

type PlaceReview struct {
	AuthorName string  `json:"author_name"`
	Rating     float64 `json:"rating"`
	Text       string  `json:"text"`
}

type NearbyQuery struct {
	Location Coords
	Radius   int
	Keyword  string
}

// LocalPayload is one restaurant as kept by a local source.
type LocalPayload struct {
	RestaurantID   string
	RestaurantName string
	Address        string
	Lat, Lng       float64
	AverageRating  float64
	TotalRatings   uint32
	Reviews        []Review
	Photos         []PlacePhoto
}

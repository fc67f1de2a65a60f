package domain

const preferredPhotoSide = 600

func newRestaurant(src Source) Restaurant {
	return Restaurant{Source: src, RatingStars: ComputeStarGlyphs(0)}
}

func NewLocalRestaurant(p LocalPayload) Restaurant {
	r := newRestaurant(SourceLocal)
	r.ID = p.RestaurantID
	r.Name = p.RestaurantName
	r.Address = p.Address
	r.Coords = Coords{Lat: p.Lat, Lng: p.Lng}
	r.AverageRating = p.AverageRating
	r.TotalRatings = p.TotalRatings
	r.Reviews = append([]Review{}, p.Reviews...)
	if len(p.Photos) > 0 {
		r.PhotoReference = p.Photos[0].PhotoReference
	}
	r.RatingStars = ComputeStarGlyphs(r.AverageRating)
	return r
}

// NewRemoteRestaurant builds a record from a nearby-search hit. Reviews are
// fetched separately and start out empty.
func NewRemoteRestaurant(p Place) Restaurant {
	r := newRestaurant(SourceRemote)
	r.ID = p.PlaceID
	r.Name = p.Name
	r.Address = p.Vicinity
	r.Coords = p.Geometry.Location
	r.AverageRating = p.Rating
	r.TotalRatings = p.UserRatingsTotal
	r.Reviews = []Review{}
	if ph, ok := PreferredPhoto(p.Photos); ok {
		r.PhotoReference = ph.PhotoReference
	}
	r.RatingStars = ComputeStarGlyphs(r.AverageRating)
	return r
}

func NewUserRestaurant(in RestaurantInput, id string) Restaurant {
	r := newRestaurant(SourceUserGenerated)
	r.ID = id
	r.Name = in.Name
	r.Address = in.Address
	r.Coords = Coords{Lat: in.Lat, Lng: in.Lng}
	r.Reviews = []Review{}
	r.CustomImage = in.CustomImage
	return r
}

// NewSearchResult builds the transient record behind a search marker.
func NewSearchResult(p Place) Restaurant {
	r := newRestaurant(SourceSearchResult)
	r.ID = p.PlaceID
	r.Name = p.Name
	r.Address = p.Vicinity
	r.Coords = p.Geometry.Location
	r.AverageRating = p.Rating
	r.TotalRatings = p.UserRatingsTotal
	if len(p.Photos) > 0 {
		r.PhotoReference = p.Photos[0].PhotoReference
	}
	r.RatingStars = ComputeStarGlyphs(r.AverageRating)
	return r
}

// PreferredPhoto picks the first photo at least 600x600, else the first one.
func PreferredPhoto(photos []PlacePhoto) (PlacePhoto, bool) {
	for _, ph := range photos {
		if ph.Height >= preferredPhotoSide && ph.Width >= preferredPhotoSide {
			return ph, true
		}
	}
	if len(photos) > 0 {
		return photos[0], true
	}
	return PlacePhoto{}, false
}

// SelectReviews keeps name, rating and text of each provider review, in order.
func SelectReviews(in []PlaceReview) []Review {
	out := make([]Review, 0, len(in))
	for _, pr := range in {
		out = append(out, NewReview(pr.AuthorName, pr.Rating, pr.Text))
	}
	return out
}

package localdb

import (
	"strconv"
	"strings"

	"restaurant_finder/internal/domain"
)

/********** alias registries **********/

var restaurantAliases = map[string][]string{
	"id":      {"restaurantId", "place_id", "placeId", "id"},
	"name":    {"restaurantName", "name", "title"},
	"address": {"address", "vicinity", "formatted_address", "location.address"},
	"lat":     {"lat", "latitude", "geometry.location.lat", "location.lat"},
	"lng":     {"lng", "lon", "long", "longitude", "geometry.location.lng", "location.lng"},
	"average": {"averageRating", "rating", "average_rating"},
	"total":   {"totalRatings", "user_ratings_total", "total_ratings", "ratingsCount"},
}

var reviewAliases = map[string][]string{
	"name":    {"name", "author_name", "author", "reviewer"},
	"stars":   {"stars", "rating", "score"},
	"comment": {"comment", "text", "review", "body"},
}

/********** helpers **********/

// lookupAny: nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstString returns the first non-empty string under any alias. Numeric
// ids are rendered without a fraction.
func firstString(m map[string]any, paths []string) string {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// firstFloat accepts numbers and numeric strings like "4,5".
func firstFloat(m map[string]any, paths []string) (float64, bool) {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case float64:
			return v, true
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func firstCount(m map[string]any, paths []string) uint32 {
	f, ok := firstFloat(m, paths)
	if !ok || f < 0 {
		return 0
	}
	return uint32(f)
}

/********** mappers **********/

// mapRestaurant turns one decoded JSON object into a payload. Records without
// an id are reported as not ok.
func mapRestaurant(m map[string]any) (domain.LocalPayload, bool) {
	p := domain.LocalPayload{
		RestaurantID:   firstString(m, restaurantAliases["id"]),
		RestaurantName: firstString(m, restaurantAliases["name"]),
		Address:        firstString(m, restaurantAliases["address"]),
		TotalRatings:   firstCount(m, restaurantAliases["total"]),
	}
	if p.RestaurantID == "" {
		return p, false
	}
	p.Lat, _ = firstFloat(m, restaurantAliases["lat"])
	p.Lng, _ = firstFloat(m, restaurantAliases["lng"])
	p.AverageRating, _ = firstFloat(m, restaurantAliases["average"])

	if raw, ok := lookupAny(m, "reviews").([]any); ok {
		p.Reviews = make([]domain.Review, 0, len(raw))
		for _, it := range raw {
			if rm, ok := it.(map[string]any); ok {
				p.Reviews = append(p.Reviews, mapReview(rm))
			}
		}
	}
	if raw, ok := lookupAny(m, "photos").([]any); ok {
		for _, it := range raw {
			pm, ok := it.(map[string]any)
			if !ok {
				continue
			}
			ref := firstString(pm, []string{"photo_reference", "photoReference", "reference"})
			if ref == "" {
				continue
			}
			h, _ := firstFloat(pm, []string{"height"})
			w, _ := firstFloat(pm, []string{"width"})
			p.Photos = append(p.Photos, domain.PlacePhoto{PhotoReference: ref, Height: int(h), Width: int(w)})
		}
	}
	return p, true
}

func mapReview(m map[string]any) domain.Review {
	stars, _ := firstFloat(m, reviewAliases["stars"])
	return domain.NewReview(
		firstString(m, reviewAliases["name"]),
		stars,
		firstString(m, reviewAliases["comment"]),
	)
}

package memory_test

import (
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant_finder/internal/domain"
	"restaurant_finder/internal/storage/memory"
)

func seeded(ratings ...float64) *memory.Repo {
	repo := memory.New(nil)
	recs := make([]domain.Restaurant, 0, len(ratings))
	for i, r := range ratings {
		recs = append(recs, domain.NewLocalRestaurant(domain.LocalPayload{
			RestaurantID:   string(rune('a' + i)),
			RestaurantName: "r",
			AverageRating:  r,
		}))
	}
	repo.Publish(recs)
	return repo
}

func ids(rs []domain.Restaurant) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestFilterByRating_FloorInclusion(t *testing.T) {
	repo := seeded(2.9, 3.0, 3.9, 4.0)
	assert.Equal(t, []string{"b", "c"}, ids(repo.FilterByRating(3, 3)))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(repo.FilterByRating(0, 5)))
	assert.Empty(t, repo.FilterByRating(5, 5))
}

func TestAddReview_EmptyInputOnFreshRecord(t *testing.T) {
	repo := memory.New(nil)
	rec := repo.AddRestaurant(domain.RestaurantInput{Name: "New", Address: "Here"})

	got, ok := repo.AddReview(rec.ID, domain.ReviewInput{Name: "", Stars: "4", Comment: ""})
	require.True(t, ok)
	assert.Equal(t, uint32(1), got.TotalRatings)
	assert.Equal(t, 4.0, got.AverageRating)
	require.Len(t, got.Reviews, 1)
	assert.Equal(t, "Anonymous", got.Reviews[0].ReviewerName)
	assert.Equal(t, "No Comment", got.Reviews[0].Comment)
	assert.Equal(t, domain.ComputeStarGlyphs(4), got.RatingStars)
}

func TestAddReview_FollowsIncrementalMean(t *testing.T) {
	repo := memory.New(nil)
	repo.Publish([]domain.Restaurant{domain.NewRemoteRestaurant(domain.Place{
		PlaceID: "g", Rating: 4.5, UserRatingsTotal: 3,
	})})

	stars := []float64{1, 5, 2, 2, 4, 1}
	avg, total := 4.5, uint32(3)
	for _, s := range stars {
		total++
		avg = domain.Round1(avg + (s-avg)/float64(total))
		_, ok := repo.AddReview("g", domain.ReviewInput{Stars: domain.RawRating(strconv.FormatFloat(s, 'f', -1, 64))})
		require.True(t, ok)
	}

	got, ok := repo.FindByID("g")
	require.True(t, ok)
	assert.Equal(t, total, got.TotalRatings)
	assert.Equal(t, avg, got.AverageRating)
	assert.Equal(t, domain.ComputeStarGlyphs(avg), got.RatingStars)

	// newest first
	require.Len(t, got.Reviews, len(stars))
	assert.Equal(t, 1.0, got.Reviews[0].Stars)
	assert.Equal(t, 1.0, got.Reviews[len(stars)-1].Stars)
	assert.Equal(t, 5.0, got.Reviews[len(stars)-2].Stars)
}

func TestAddReview_UnknownID(t *testing.T) {
	repo := seeded(3)
	_, ok := repo.AddReview("nope", domain.ReviewInput{Stars: "5"})
	assert.False(t, ok)
}

func TestAddReview_MeanBelowTieRoundsDown(t *testing.T) {
	repo := memory.New(nil)
	repo.Publish([]domain.Restaurant{domain.NewRemoteRestaurant(domain.Place{
		PlaceID: "g", Rating: 1, UserRatingsTotal: 19,
	})})

	// 1 + (4-1)/20 lands just under 1.15
	got, ok := repo.AddReview("g", domain.ReviewInput{Stars: "4"})
	require.True(t, ok)
	assert.Equal(t, uint32(20), got.TotalRatings)
	assert.Equal(t, 1.1, got.AverageRating)
	assert.Equal(t, domain.ComputeStarGlyphs(1.1), got.RatingStars)
	assert.Len(t, repo.FilterByRating(1, 1), 1)
}

// Run with -race.
func TestConcurrentReviewsAndEnrichment(t *testing.T) {
	repo := memory.New(nil)
	repo.Publish([]domain.Restaurant{domain.NewRemoteRestaurant(domain.Place{PlaceID: "g"})})

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_, ok := repo.AddReview("g", domain.ReviewInput{Stars: "3"})
				assert.True(t, ok)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				assert.True(t, repo.AttachReviews("g", []domain.Review{domain.NewReview("bot", 5, "")}))
				_, _ = repo.FindByID("g")
				_ = repo.FilterByRating(0, 5)
			}
		}()
	}
	wg.Wait()

	got, ok := repo.FindByID("g")
	require.True(t, ok)
	assert.Equal(t, uint32(writers*perWriter), got.TotalRatings)
	assert.Len(t, got.Reviews, 2*writers*perWriter)
	// attached reviews never touch the stats
	assert.Equal(t, 3.0, got.AverageRating)
}

func TestFindByID_Idempotent(t *testing.T) {
	repo := seeded(3.2, 4.1)
	a, okA := repo.FindByID("b")
	b, okB := repo.FindByID("b")
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, a, b)

	_, ok := repo.FindByID("zz")
	assert.False(t, ok)
}

func TestFindByID_ReturnsCopy(t *testing.T) {
	repo := memory.New(nil)
	repo.Publish([]domain.Restaurant{domain.NewLocalRestaurant(domain.LocalPayload{
		RestaurantID: "x",
		Reviews:      []domain.Review{{ReviewerName: "A", Stars: 1, Comment: "c"}},
	})})

	got, _ := repo.FindByID("x")
	got.Reviews[0].ReviewerName = "mutated"
	got.Name = "mutated"

	again, _ := repo.FindByID("x")
	assert.Equal(t, "A", again.Reviews[0].ReviewerName)
	assert.Empty(t, again.Name)
}

func TestAddRestaurant_PrependsWithFreshID(t *testing.T) {
	repo := seeded(1, 2)
	a := repo.AddRestaurant(domain.RestaurantInput{Name: "A", Address: "1"})
	b := repo.AddRestaurant(domain.RestaurantInput{Name: "B", Address: "2"})

	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, strings.HasPrefix(a.ID, "uGId"))
	assert.Equal(t, domain.SourceUserGenerated, a.Source)
	assert.Equal(t, []string{b.ID, a.ID, "a", "b"}, ids(repo.All()))
}

func TestPublish_SkipsKnownIDs(t *testing.T) {
	repo := seeded(1)
	inserted := repo.Publish([]domain.Restaurant{
		domain.NewRemoteRestaurant(domain.Place{PlaceID: "a", Name: "dup"}),
		domain.NewRemoteRestaurant(domain.Place{PlaceID: "g", Name: "fresh"}),
	})
	assert.Equal(t, []string{"g"}, ids(inserted))
	assert.Equal(t, 2, repo.Len())

	got, _ := repo.FindByID("a")
	assert.Equal(t, domain.SourceLocal, got.Source)
}

func TestAttachReviews_KeepsStats(t *testing.T) {
	repo := memory.New(nil)
	repo.Publish([]domain.Restaurant{domain.NewRemoteRestaurant(domain.Place{PlaceID: "g", Rating: 4.1, UserRatingsTotal: 10})})

	ok := repo.AttachReviews("g", []domain.Review{
		{ReviewerName: "one", Stars: 1},
		{ReviewerName: "two", Stars: 2},
	})
	require.True(t, ok)
	got, _ := repo.FindByID("g")
	assert.Equal(t, []string{"one", "two"}, []string{got.Reviews[0].ReviewerName, got.Reviews[1].ReviewerName})
	assert.Equal(t, 4.1, got.AverageRating)
	assert.Equal(t, uint32(10), got.TotalRatings)

	assert.False(t, repo.AttachReviews("missing", nil))
}

func TestReset(t *testing.T) {
	repo := seeded(1, 2, 3)
	repo.Reset()
	assert.Zero(t, repo.Len())
	assert.Empty(t, repo.All())
}

package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"restaurant_finder/internal/domain"
)

func valStr(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// Source serves the local restaurant seed tables. Seed writes them, the
// directory only ever reads.
type Source struct{ db *sql.DB }

func New(db *sql.DB) *Source { return &Source{db: db} }

// Seed upserts restaurants with their reviews and photos in one transaction.
// A restaurant's review and photo lists replace whatever was stored before.
func (s *Source) Seed(ctx context.Context, ps []domain.LocalPayload) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range ps {
		if _, err := tx.ExecContext(ctx, upsertRestaurantSQL,
			p.RestaurantID,
			p.RestaurantName,
			p.Address,
			p.Lat,
			p.Lng,
			domain.Round1(p.AverageRating),
			p.TotalRatings,
		); err != nil {
			return fmt.Errorf("upsert restaurant %s: %w", p.RestaurantID, err)
		}
		if err := insertReviews(ctx, tx, p.RestaurantID, p.Reviews); err != nil {
			return fmt.Errorf("upsert reviews for %s: %w", p.RestaurantID, err)
		}
		if err := insertPhotos(ctx, tx, p.RestaurantID, p.Photos); err != nil {
			return fmt.Errorf("upsert photos for %s: %w", p.RestaurantID, err)
		}
	}
	return tx.Commit()
}

func insertReviews(ctx context.Context, tx *sql.Tx, id string, rs []domain.Review) error {
	if _, err := tx.ExecContext(ctx, pruneReviewsSQL, id, len(rs)); err != nil {
		return err
	}
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*5) // 5 params per row
	for i, rv := range rs {
		values = append(values, "(?,?,?,?,?)")
		args = append(args,
			id,                      // restaurant_id
			i,                       // position
			rv.ReviewerName,         // reviewer
			domain.Round1(rv.Stars), // stars
			valStr(rv.Comment),      // comment
		)
	}
	_, err := tx.ExecContext(ctx, insertReviewsPrefix+strings.Join(values, ",")+insertReviewsOnDup, args...)
	return err
}

func insertPhotos(ctx context.Context, tx *sql.Tx, id string, ps []domain.PlacePhoto) error {
	if _, err := tx.ExecContext(ctx, prunePhotosSQL, id, len(ps)); err != nil {
		return err
	}
	if len(ps) == 0 {
		return nil
	}
	values := make([]string, 0, len(ps))
	args := make([]any, 0, len(ps)*5)
	for i, ph := range ps {
		values = append(values, "(?,?,?,?,?)")
		args = append(args, id, i, ph.PhotoReference, ph.Height, ph.Width)
	}
	_, err := tx.ExecContext(ctx, insertPhotosPrefix+strings.Join(values, ",")+insertPhotosOnDup, args...)
	return err
}

// FetchRestaurants loads every seeded restaurant in insertion order, with
// reviews and photos in their stored positions.
func (s *Source) FetchRestaurants(ctx context.Context) ([]domain.LocalPayload, error) {
	rows, err := s.db.QueryContext(ctx, listRestaurantsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LocalPayload
	index := map[string]int{}
	for rows.Next() {
		var p domain.LocalPayload
		var addr sql.NullString
		if err := rows.Scan(&p.RestaurantID, &p.RestaurantName, &addr, &p.Lat, &p.Lng, &p.AverageRating, &p.TotalRatings); err != nil {
			return nil, err
		}
		if addr.Valid {
			p.Address = addr.String
		}
		index[p.RestaurantID] = len(out)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	if err := s.attachReviews(ctx, out, index); err != nil {
		return nil, err
	}
	if err := s.attachPhotos(ctx, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Source) attachReviews(ctx context.Context, out []domain.LocalPayload, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, listReviewsSQL)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, reviewer string
			stars        float64
			comment      sql.NullString
		)
		if err := rows.Scan(&id, &reviewer, &stars, &comment); err != nil {
			return err
		}
		i, ok := index[id]
		if !ok {
			log.Warn().Str("restaurant_id", id).Msg("orphan review row")
			continue
		}
		out[i].Reviews = append(out[i].Reviews, domain.NewReview(reviewer, stars, comment.String))
	}
	return rows.Err()
}

func (s *Source) attachPhotos(ctx context.Context, out []domain.LocalPayload, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, listPhotosSQL)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var ph domain.PlacePhoto
		if err := rows.Scan(&id, &ph.PhotoReference, &ph.Height, &ph.Width); err != nil {
			return err
		}
		if i, ok := index[id]; ok {
			out[i].Photos = append(out[i].Photos, ph)
		}
	}
	return rows.Err()
}

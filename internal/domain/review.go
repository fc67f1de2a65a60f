package domain

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

const (
	defaultReviewerName = "Anonymous"
	defaultComment      = "No Comment"
)

type Review struct {
	ReviewerName string  `json:"name"`
	Stars        float64 `json:"stars"`
	Comment      string  `json:"comment"`
}

// NewReview trims both text fields and fills in the defaults for blanks.
func NewReview(name string, stars float64, comment string) Review {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultReviewerName
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		comment = defaultComment
	}
	return Review{ReviewerName: name, Stars: stars, Comment: comment}
}

// ReviewInput is what a user submits for a restaurant.
type ReviewInput struct {
	Name    string    `json:"name"`
	Stars   RawRating `json:"stars"`
	Comment string    `json:"comment"`
}

func (in ReviewInput) Review() Review {
	return NewReview(in.Name, in.Stars.Float(), in.Comment)
}

// RawRating keeps a rating as submitted: a JSON number or a numeric string.
type RawRating string

func (r *RawRating) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) >= 2 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		*r = RawRating(s)
		return nil
	}
	*r = RawRating(b)
	return nil
}

func (r RawRating) IsSet() bool { return strings.TrimSpace(string(r)) != "" }

// Float coerces the raw value; "3,5" reads as 3.5 and garbage as 0.
func (r RawRating) Float() float64 {
	s := strings.TrimSpace(strings.ReplaceAll(string(r), ",", "."))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is feedback left by the buyer of a completed order about the seller.
type Review struct {
	ID        string
	Author    Party
	Subject   Party
	Text      string
	Rating    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidRating reports whether r lies within MinRating and MaxRating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

package handler

import (
	"time"

	"github.com/hourbank/timebank/internal/core/ports"
)

type createReviewRequest struct {
	Text   string `json:"text" validate:"required,max=2000"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
}

// updateReviewRequest is a partial edit: absent fields stay as they are.
type updateReviewRequest struct {
	Text   *string `json:"text,omitempty" validate:"omitempty,max=2000"`
	Rating *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
}

type reviewResponse struct {
	ID        string        `json:"id"`
	Author    partyResponse `json:"author"`
	Subject   partyResponse `json:"subject"`
	Text      string        `json:"text"`
	Rating    int           `json:"rating" example:"5"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type reviewData struct {
	Review reviewResponse `json:"review"`
}

type reviewListData struct {
	Reviews []reviewResponse `json:"reviews"`
	Results int              `json:"results"`
}

type reviewPageData struct {
	Reviews    []reviewResponse `json:"reviews"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

func toReviewPageData(res *ports.ListReviewsResult) reviewPageData {
	reviews := make([]reviewResponse, 0, len(res.Items))
	for i := range res.Items {
		reviews = append(reviews, toReviewResponse(&res.Items[i]))
	}
	return reviewPageData{
		Reviews:    reviews,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	}
}

func toReviewResponse(v *ports.ReviewView) reviewResponse {
	return reviewResponse{
		ID:        v.ID,
		Author:    partyResponse{ID: v.Author.ID, Name: v.Author.Name},
		Subject:   partyResponse{ID: v.Subject.ID, Name: v.Subject.Name},
		Text:      v.Text,
		Rating:    v.Rating,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

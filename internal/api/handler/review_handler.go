package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hourbank/timebank/internal/core/ports"
)

type ReviewHandler struct {
	service ports.ReviewService
}

func NewReviewHandler(service ports.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// Create handles POST /users/:id/reviews.
//
// @Summary      Review a user
// @Description  Only allowed after a completed order from the caller to that user, once per pair.
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Reviewed user id"
// @Param        body  body      createReviewRequest  true  "Review"
// @Success      201   {object}  successEnvelope{data=reviewData}
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Router       /users/{id}/reviews [post]
func (h *ReviewHandler) Create(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req createReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.service.CreateReview(c.Request().Context(), ports.CreateReviewInput{
		CallerID:  caller,
		SubjectID: c.Param("id"),
		Text:      sanitize(req.Text),
		Rating:    req.Rating,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, reviewData{Review: toReviewResponse(view)})
}

// ListForSubject handles GET /users/:id/reviews.
//
// @Summary      Reviews about a user
// @Tags         reviews
// @Produce      json
// @Param        id   path      string  true  "Reviewed user id"
// @Success      200  {object}  successEnvelope{data=reviewListData}
// @Router       /users/{id}/reviews [get]
func (h *ReviewHandler) ListForSubject(c echo.Context) error {
	views, err := h.service.ListReviewsForSubject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	reviews := make([]reviewResponse, 0, len(views))
	for i := range views {
		reviews = append(reviews, toReviewResponse(&views[i]))
	}
	return respond(c, http.StatusOK, reviewListData{Reviews: reviews, Results: len(reviews)})
}

// List handles GET /reviews.
//
// @Summary      All reviews
// @Tags         reviews
// @Produce      json
// @Param        rating  query     int  false  "Only reviews with this rating"
// @Param        page    query     int  false  "Page number (1-based)"
// @Param        limit   query     int  false  "Page size (max 100)"
// @Success      200     {object}  successEnvelope{data=reviewPageData}
// @Failure      400     {object}  errorEnvelope
// @Router       /reviews [get]
func (h *ReviewHandler) List(c echo.Context) error {
	rating, err := intQuery(c, "rating")
	if err != nil {
		return err
	}
	page, err := intQuery(c, "page")
	if err != nil {
		return err
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		return err
	}

	res, err := h.service.ListReviews(c.Request().Context(), ports.ListReviewsInput{Rating: rating, Page: page, Limit: limit})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toReviewPageData(res))
}

// Get handles GET /reviews/:id.
//
// @Summary      Get a review
// @Tags         reviews
// @Produce      json
// @Param        id   path      string  true  "Review id"
// @Success      200  {object}  successEnvelope{data=reviewData}
// @Failure      404  {object}  errorEnvelope
// @Router       /reviews/{id} [get]
func (h *ReviewHandler) Get(c echo.Context) error {
	view, err := h.service.GetReview(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, reviewData{Review: toReviewResponse(view)})
}

// Delete handles DELETE /reviews/:id (admin only).
//
// @Summary      Delete a review
// @Tags         reviews
// @Security     BearerAuth
// @Param        id   path  string  true  "Review id"
// @Success      204
// @Failure      403  {object}  errorEnvelope
// @Failure      404  {object}  errorEnvelope
// @Router       /reviews/{id} [delete]
func (h *ReviewHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteReview(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Update handles PATCH /reviews/:id. Only the author may edit.
//
// @Summary      Edit a review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Review id"
// @Param        body  body      updateReviewRequest  true  "Fields to change"
// @Success      200   {object}  successEnvelope{data=reviewData}
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Failure      404   {object}  errorEnvelope
// @Router       /reviews/{id} [patch]
func (h *ReviewHandler) Update(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req updateReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.service.UpdateReview(c.Request().Context(), ports.UpdateReviewInput{
		CallerID: caller,
		ReviewID: c.Param("id"),
		Text:     sanitizePtr(req.Text),
		Rating:   req.Rating,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, reviewData{Review: toReviewResponse(view)})
}

package handlers

import (
	"net/http"

	"bolsafeucn/internal/middleware"
	"bolsafeucn/internal/services"
	"bolsafeucn/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	*BaseHandler
	reviewService services.ReviewService
}

func NewReviewHandler(base *BaseHandler, reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   base,
		reviewService: reviewService,
	}
}

func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup) {
	reviews := r.Group("/reviews")
	reviews.Use(middleware.AuthMiddleware())
	{
		reviews.GET("/pending", h.ListPending)
		reviews.GET("/pending/count", h.PendingCount)
		reviews.GET("/my", h.ListMine)
		reviews.GET("/:id", h.GetReview)
		reviews.GET("/publication/:publicationId", h.GetByPublication)
		reviews.POST("/publication/:publicationId/student", h.SubmitStudentHalf)
		reviews.POST("/publication/:publicationId/offeror", h.SubmitOfferorHalf)
	}
}

func (h *ReviewHandler) ListPending(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	reviews, err := h.reviewService.ListPendingReviews(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Pending reviews retrieved", gin.H{"reviews": reviews, "total": len(reviews)})
}

// PendingCount godoc
// @Summary Число незавершенных отзывов
// @Description blocked=true, если пользователь достиг порога и не может публиковать и откликаться
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MessageResponse{data=dto.PendingReviewsCountResponse}
// @Router /reviews/pending/count [get]
func (h *ReviewHandler) PendingCount(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	status, err := h.reviewService.GetPendingStatus(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Pending reviews counted", status)
}

func (h *ReviewHandler) ListMine(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	reviews, err := h.reviewService.ListMyReviews(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Reviews retrieved", gin.H{"reviews": reviews, "total": len(reviews)})
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	reviewID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	review, err := h.reviewService.GetReview(c.Request.Context(), h.GetDB(c), reviewID, h.GetViewer(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Review retrieved", review)
}

func (h *ReviewHandler) GetByPublication(c *gin.Context) {
	publicationID, ok := h.paramID(c, "publicationId")
	if !ok {
		return
	}

	review, err := h.reviewService.GetReviewByPublication(c.Request.Context(), h.GetDB(c), publicationID, h.GetViewer(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Review retrieved", review)
}

// SubmitStudentHalf godoc
// @Summary Оферент оценивает студента
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param publicationId path int true "ID публикации"
// @Param request body dto.StudentReviewRequest true "Оценка 1..6 и чек-лист"
// @Success 200 {object} dto.MessageResponse{data=dto.ReviewResponse}
// @Failure 403 {object} apperrors.ErrorResponse "Не оферент этого отзыва"
// @Failure 409 {object} apperrors.ErrorResponse "Уже оценено"
// @Router /reviews/publication/{publicationId}/student [post]
func (h *ReviewHandler) SubmitStudentHalf(c *gin.Context) {
	offerorID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	publicationID, ok := h.paramID(c, "publicationId")
	if !ok {
		return
	}

	var req dto.StudentReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	review, err := h.reviewService.SubmitStudentHalf(c.Request.Context(), h.GetDB(c), publicationID, offerorID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Student review submitted", review)
}

func (h *ReviewHandler) SubmitOfferorHalf(c *gin.Context) {
	studentID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	publicationID, ok := h.paramID(c, "publicationId")
	if !ok {
		return
	}

	var req dto.OfferorReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	review, err := h.reviewService.SubmitOfferorHalf(c.Request.Context(), h.GetDB(c), publicationID, studentID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Offeror review submitted", review)
}

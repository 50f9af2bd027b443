package handlers

import (
	"net/http"

	"bolsafeucn/internal/auth"
	"bolsafeucn/internal/middleware"
	"bolsafeucn/internal/services"
	"bolsafeucn/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// AdminHandler - модерация публикаций и управление отзывами
type AdminHandler struct {
	*BaseHandler
	moderationService services.ModerationService
	reviewService     services.ReviewService
}

func NewAdminHandler(base *BaseHandler, moderationService services.ModerationService, reviewService services.ReviewService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:       base,
		moderationService: moderationService,
		reviewService:     reviewService,
	}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	publications := r.Group("/admin/publications")
	publications.Use(middleware.AuthMiddleware(), middleware.RequirePermission(auth.PermPublicationModerate))
	{
		publications.GET("/pending", h.ListPending)
		publications.POST("/:id/approve", h.Approve)
		publications.POST("/:id/reject", h.Reject)
		publications.POST("/:id/close", h.Close)
	}

	reviews := r.Group("/admin/reviews")
	reviews.Use(middleware.AuthMiddleware(), middleware.RequirePermission(auth.PermReviewAdmin))
	{
		reviews.GET("", h.ListReviews)
		reviews.POST("", h.CreateInitialReview)
		reviews.DELETE("/:id/parts", h.DeleteReviewParts)
	}
}

// --- Publications ---

func (h *AdminHandler) ListPending(c *gin.Context) {
	page, pageSize := ParsePagination(c)

	resp, err := h.moderationService.ListPendingModeration(c.Request.Context(), h.GetDB(c), page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Pending publications retrieved", resp)
}

// Approve godoc
// @Summary Одобрить публикацию
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID публикации"
// @Success 200 {object} dto.MessageResponse{data=dto.PublicationResponse}
// @Failure 409 {object} apperrors.ErrorResponse "Публикация не на модерации"
// @Router /admin/publications/{id}/approve [post]
func (h *AdminHandler) Approve(c *gin.Context) {
	publicationID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	resp, err := h.moderationService.AdminApprove(c.Request.Context(), h.GetDB(c), publicationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Publication approved", resp)
}

// Reject godoc
// @Summary Отклонить публикацию
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID публикации"
// @Param request body dto.RejectPublicationRequest true "Причина"
// @Success 200 {object} dto.MessageResponse{data=dto.PublicationResponse}
// @Router /admin/publications/{id}/reject [post]
func (h *AdminHandler) Reject(c *gin.Context) {
	publicationID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	var req dto.RejectPublicationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.moderationService.AdminReject(c.Request.Context(), h.GetDB(c), publicationID, req.Reason)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Publication rejected", resp)
}

func (h *AdminHandler) Close(c *gin.Context) {
	publicationID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	resp, err := h.moderationService.AdminClose(c.Request.Context(), h.GetDB(c), publicationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Publication closed", resp)
}

// --- Reviews ---

func (h *AdminHandler) ListReviews(c *gin.Context) {
	page, pageSize := ParsePagination(c)

	resp, err := h.reviewService.ListAllReviews(c.Request.Context(), h.GetDB(c), page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Reviews retrieved", resp)
}

func (h *AdminHandler) CreateInitialReview(c *gin.Context) {
	var req dto.CreateInitialReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.reviewService.CreateInitialReview(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusCreated, "Review created", resp)
}

// DeleteReviewParts godoc
// @Summary Стереть части отзыва
// @Description delete_student_part стирает написанное студентом, delete_offeror_part - написанное оферентом
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID отзыва"
// @Param request body dto.DeleteReviewPartRequest true "Какие части стереть"
// @Success 200 {object} dto.MessageResponse{data=dto.ReviewResponse}
// @Router /admin/reviews/{id}/parts [delete]
func (h *AdminHandler) DeleteReviewParts(c *gin.Context) {
	reviewID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	var req dto.DeleteReviewPartRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.reviewService.AdminDeleteReviewPart(c.Request.Context(), h.GetDB(c), reviewID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Review parts deleted", resp)
}

package handlers

import (
	"fmt"
	"net/http"

	"bolsafeucn/internal/auth"
	"bolsafeucn/internal/middleware"
	"bolsafeucn/internal/services"
	"bolsafeucn/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PublicationHandler struct {
	*BaseHandler
	moderationService services.ModerationService
}

func NewPublicationHandler(base *BaseHandler, moderationService services.ModerationService) *PublicationHandler {
	return &PublicationHandler{
		BaseHandler:       base,
		moderationService: moderationService,
	}
}

func (h *PublicationHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Public routes
	public := r.Group("/publications")
	{
		public.GET("", h.ListPublished)
		public.GET("/:id", middleware.OptionalAuth(), h.GetPublication)
	}

	// Protected routes
	publications := r.Group("/publications")
	publications.Use(middleware.AuthMiddleware())
	{
		publications.POST("", middleware.RequirePermission(auth.PermPublicationCreate), h.CreatePublication)
		publications.GET("/my", h.ListMine)
		publications.POST("/:id/appeal", h.Appeal)
		publications.POST("/:id/close", h.Close)
	}
}

// ListPublished godoc
// @Summary Опубликованные публикации
// @Tags publications
// @Produce json
// @Param type query string false "Offer или BuySell"
// @Param page query int false "Страница"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} dto.MessageResponse{data=dto.PaginatedResponse}
// @Router /publications [get]
func (h *PublicationHandler) ListPublished(c *gin.Context) {
	var query dto.PublicationListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	resp, err := h.moderationService.ListPublished(c.Request.Context(), h.GetDB(c), query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Publications retrieved", resp)
}

// GetPublication godoc
// @Summary Публикация по ID
// @Description Неопубликованные видят только владелец и администратор
// @Tags publications
// @Produce json
// @Param id path int true "ID публикации"
// @Success 200 {object} dto.MessageResponse{data=dto.PublicationResponse}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /publications/{id} [get]
func (h *PublicationHandler) GetPublication(c *gin.Context) {
	publicationID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	resp, err := h.moderationService.GetPublication(c.Request.Context(), h.GetDB(c), publicationID, h.GetViewer(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Publication retrieved", resp)
}

// CreatePublication godoc
// @Summary Создать публикацию
// @Description Публикация уходит на модерацию; публикации администратора видны сразу
// @Tags publications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePublicationRequest true "Публикация"
// @Success 201 {object} dto.MessageResponse{data=dto.PublicationResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse "Слишком много незавершенных отзывов"
// @Router /publications [post]
func (h *PublicationHandler) CreatePublication(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreatePublicationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.moderationService.CreatePublication(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusCreated, "Publication created", resp)
}

func (h *PublicationHandler) ListMine(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	page, pageSize := ParsePagination(c)

	resp, err := h.moderationService.ListByOwner(c.Request.Context(), h.GetDB(c), userID, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Publications retrieved", resp)
}

// Appeal godoc
// @Summary Апелляция на отклонение
// @Tags publications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID публикации"
// @Param request body dto.AppealPublicationRequest true "Обоснование"
// @Success 200 {object} dto.MessageResponse{data=dto.AppealResponse}
// @Failure 409 {object} apperrors.ErrorResponse "Публикация не отклонена или лимит исчерпан"
// @Router /publications/{id}/appeal [post]
func (h *PublicationHandler) Appeal(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	publicationID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	var req dto.AppealPublicationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.moderationService.OwnerAppeal(c.Request.Context(), h.GetDB(c), publicationID, userID, req.Justification)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, fmt.Sprintf("Appeal submitted, %d appeals remaining", resp.RemainingAppeals), resp)
}

func (h *PublicationHandler) Close(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	publicationID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	resp, err := h.moderationService.OwnerClose(c.Request.Context(), h.GetDB(c), publicationID, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Publication closed", resp)
}

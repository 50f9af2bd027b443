package handlers

import (
	"net/http"

	"bolsafeucn/internal/auth"
	"bolsafeucn/internal/middleware"
	"bolsafeucn/internal/models"
	"bolsafeucn/internal/services"
	"bolsafeucn/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	*BaseHandler
	applicationService services.ApplicationService
}

func NewApplicationHandler(base *BaseHandler, applicationService services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		BaseHandler:        base,
		applicationService: applicationService,
	}
}

func (h *ApplicationHandler) RegisterRoutes(r *gin.RouterGroup) {
	publications := r.Group("/publications/:id/applications")
	publications.Use(middleware.AuthMiddleware())
	{
		publications.POST("", middleware.RequirePermission(auth.PermApplicationCreate), h.Apply)
		publications.GET("", h.ListForPublication)
	}

	applications := r.Group("/applications")
	applications.Use(middleware.AuthMiddleware())
	{
		applications.GET("/my", middleware.RequireRoles(models.UserRoleStudent), h.ListMine)
		applications.GET("/:id", h.GetApplication)
		applications.PATCH("/:id/status", h.UpdateStatus)
	}
}

// Apply godoc
// @Summary Откликнуться на оффер
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID оффера"
// @Param request body dto.ApplyRequest false "Мотивация"
// @Success 201 {object} dto.MessageResponse{data=dto.ApplicationResponse}
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /publications/{id}/applications [post]
func (h *ApplicationHandler) Apply(c *gin.Context) {
	studentID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	publicationID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	var req dto.ApplyRequest
	// Тело необязательно
	if c.Request.ContentLength > 0 && !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.applicationService.Apply(c.Request.Context(), h.GetDB(c), studentID, publicationID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusCreated, "Application submitted", resp)
}

func (h *ApplicationHandler) ListForPublication(c *gin.Context) {
	ownerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	publicationID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	resp, err := h.applicationService.ListForPublication(c.Request.Context(), h.GetDB(c), ownerID, publicationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Applications retrieved", gin.H{"applications": resp, "total": len(resp)})
}

func (h *ApplicationHandler) ListMine(c *gin.Context) {
	studentID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.applicationService.ListMine(c.Request.Context(), h.GetDB(c), studentID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Applications retrieved", gin.H{"applications": resp, "total": len(resp)})
}

func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	applicationID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	resp, err := h.applicationService.GetApplication(c.Request.Context(), h.GetDB(c), userID, applicationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Application retrieved", resp)
}

// UpdateStatus godoc
// @Summary Принять или отклонить заявку
// @Description При принятии создается пустой отзыв по публикации
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID заявки"
// @Param request body dto.UpdateApplicationStatusRequest true "accepted или rejected"
// @Success 200 {object} dto.MessageResponse{data=dto.ApplicationResponse}
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse "Заявка уже рассмотрена"
// @Router /applications/{id}/status [patch]
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	offerorID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	applicationID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateApplicationStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.applicationService.UpdateStatus(c.Request.Context(), h.GetDB(c), offerorID, applicationID, req.Status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Application status updated", resp)
}

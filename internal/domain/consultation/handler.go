package consultation

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dermclinic/dermclinic/internal/platform/apperr"
	"github.com/dermclinic/dermclinic/internal/platform/occ"
	"github.com/dermclinic/dermclinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/consultations", h.ListConsultations)
	api.POST("/consultations", h.CreateConsultation)
	api.GET("/consultations/:id", h.GetConsultation)
	api.PUT("/consultations/:id", h.UpdateConsultation)
	api.DELETE("/consultations/:id", h.DeleteConsultation)

	api.POST("/transfers", h.Transfer)
}

func (h *Handler) CreateConsultation(c echo.Context) error {
	var in Consultation
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	if err := h.svc.CreateConsultation(c.Request().Context(), &in); err != nil {
		return err
	}
	occ.SetVersionHeaders(c, occ.FormatToken(in.VersionID), in.UpdatedAt)
	return c.JSON(http.StatusCreated, in)
}

func (h *Handler) GetConsultation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	cons, token, err := h.svc.GetConsultation(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if occ.CheckIfNoneMatch(c, token) {
		occ.SetVersionHeaders(c, token, cons.UpdatedAt)
		return c.NoContent(http.StatusNotModified)
	}
	occ.SetVersionHeaders(c, token, cons.UpdatedAt)
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) ListConsultations(c echo.Context) error {
	pg := pagination.FromContext(c)
	consultations, total, err := h.svc.ListConsultations(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(consultations, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateConsultation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	token, err := occ.RequireIfMatch(c)
	if err != nil {
		return err
	}
	var in Consultation
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	cons, newToken, err := h.svc.UpdateConsultation(c.Request().Context(), id, token, &in)
	if err != nil {
		return err
	}
	occ.SetVersionHeaders(c, newToken, cons.UpdatedAt)
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) DeleteConsultation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	if err := h.svc.DeleteConsultation(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Transfer(c echo.Context) error {
	var req TransferRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	moved, err := h.svc.Transfer(c.Request().Context(), req.Transfers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, moved)
}

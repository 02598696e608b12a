package registry

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
	api.GET("/patients", h.ListPatients)
	api.POST("/patients", h.CreatePatient)
	api.GET("/patients/:id", h.GetPatient)
	api.PUT("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.DeletePatient)

	api.GET("/dermatologists", h.ListDermatologists)
	api.POST("/dermatologists", h.CreateDermatologist)
	api.GET("/dermatologists/:id", h.GetDermatologist)
	api.PUT("/dermatologists/:id", h.UpdateDermatologist)
	api.DELETE("/dermatologists/:id", h.DeleteDermatologist)
}

// -- Patient Handlers --

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		return err
	}
	occ.SetVersionHeaders(c, occ.FormatToken(p.VersionID), p.UpdatedAt)
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	p, token, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if occ.CheckIfNoneMatch(c, token) {
		occ.SetVersionHeaders(c, token, p.UpdatedAt)
		return c.NoContent(http.StatusNotModified)
	}
	occ.SetVersionHeaders(c, token, p.UpdatedAt)
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.ListPatients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	token, err := occ.RequireIfMatch(c)
	if err != nil {
		return err
	}
	var in Patient
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	p, newToken, err := h.svc.UpdatePatient(c.Request().Context(), id, token, &in)
	if err != nil {
		return err
	}
	occ.SetVersionHeaders(c, newToken, p.UpdatedAt)
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Dermatologist Handlers --

func (h *Handler) CreateDermatologist(c echo.Context) error {
	var d Dermatologist
	if err := c.Bind(&d); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	if err := h.svc.CreateDermatologist(c.Request().Context(), &d); err != nil {
		return err
	}
	occ.SetVersionHeaders(c, occ.FormatToken(d.VersionID), d.UpdatedAt)
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDermatologist(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	d, token, err := h.svc.GetDermatologist(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if occ.CheckIfNoneMatch(c, token) {
		occ.SetVersionHeaders(c, token, d.UpdatedAt)
		return c.NoContent(http.StatusNotModified)
	}
	occ.SetVersionHeaders(c, token, d.UpdatedAt)
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDermatologists(c echo.Context) error {
	pg := pagination.FromContext(c)
	derms, total, err := h.svc.ListDermatologists(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(derms, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateDermatologist(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	token, err := occ.RequireIfMatch(c)
	if err != nil {
		return err
	}
	var in Dermatologist
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	d, newToken, err := h.svc.UpdateDermatologist(c.Request().Context(), id, token, &in)
	if err != nil {
		return err
	}
	occ.SetVersionHeaders(c, newToken, d.UpdatedAt)
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDermatologist(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	if err := h.svc.DeleteDermatologist(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

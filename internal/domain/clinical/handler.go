package clinical

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dermclinic/dermclinic/internal/platform/apperr"
	"github.com/dermclinic/dermclinic/internal/platform/occ"
	"github.com/dermclinic/dermclinic/pkg/pagination"
)

// HeaderIdempotencyKey is required on diagnosis creation.
const HeaderIdempotencyKey = "Idempotency-Key"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/lesions", h.ListLesions)
	api.POST("/lesions", h.CreateLesion)
	api.GET("/lesions/:id", h.GetLesion)
	api.PUT("/lesions/:id", h.UpdateLesion)
	api.DELETE("/lesions/:id", h.DeleteLesion)

	api.GET("/diagnoses", h.ListDiagnoses)
	api.POST("/diagnoses", h.CreateDiagnosis)
	api.GET("/diagnoses/:id", h.GetDiagnosis)
	api.PUT("/diagnoses/:id", h.UpdateDiagnosis)
	api.DELETE("/diagnoses/:id", h.DeleteDiagnosis)

	api.GET("/patients/:id/lesions", h.ListPatientLesions)
	api.GET("/patients/:id/diagnoses", h.ListPatientDiagnoses)
}

// -- Lesion Handlers --

func (h *Handler) CreateLesion(c echo.Context) error {
	var l Lesion
	if err := c.Bind(&l); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	if err := h.svc.CreateLesion(c.Request().Context(), &l); err != nil {
		return err
	}
	occ.SetVersionHeaders(c, occ.FormatToken(l.VersionID), l.UpdatedAt)
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) GetLesion(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	l, token, err := h.svc.GetLesion(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if occ.CheckIfNoneMatch(c, token) {
		occ.SetVersionHeaders(c, token, l.UpdatedAt)
		return c.NoContent(http.StatusNotModified)
	}
	occ.SetVersionHeaders(c, token, l.UpdatedAt)
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ListLesions(c echo.Context) error {
	pg := pagination.FromContext(c)
	lesions, total, err := h.svc.ListLesions(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(lesions, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListPatientLesions(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	lesions, err := h.svc.ListPatientLesions(c.Request().Context(), patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lesions)
}

func (h *Handler) UpdateLesion(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	token, err := occ.RequireIfMatch(c)
	if err != nil {
		return err
	}
	var in Lesion
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	l, newToken, err := h.svc.UpdateLesion(c.Request().Context(), id, token, &in)
	if err != nil {
		return err
	}
	occ.SetVersionHeaders(c, newToken, l.UpdatedAt)
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) DeleteLesion(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	if err := h.svc.DeleteLesion(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Diagnosis Handlers --

// CreateDiagnosis requires an Idempotency-Key header. A replayed request
// answers 200 with the stored result; only a fresh execution answers 201.
func (h *Handler) CreateDiagnosis(c echo.Context) error {
	key := c.Request().Header.Get(HeaderIdempotencyKey)
	if key == "" {
		return apperr.Validation("%s header is required", HeaderIdempotencyKey)
	}

	var d Diagnosis
	if err := c.Bind(&d); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}

	created, replayed, err := h.svc.CreateDiagnosisIdempotent(c.Request().Context(), key, &d)
	if err != nil {
		return err
	}

	occ.SetVersionHeaders(c, occ.FormatToken(created.VersionID), created.UpdatedAt)
	if replayed {
		return c.JSON(http.StatusOK, created)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetDiagnosis(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	d, token, err := h.svc.GetDiagnosis(c.Request().Context(), id)
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

func (h *Handler) ListDiagnoses(c echo.Context) error {
	pg := pagination.FromContext(c)
	diagnoses, total, err := h.svc.ListDiagnoses(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(diagnoses, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListPatientDiagnoses(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	diagnoses, err := h.svc.ListPatientDiagnoses(c.Request().Context(), patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, diagnoses)
}

func (h *Handler) UpdateDiagnosis(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	token, err := occ.RequireIfMatch(c)
	if err != nil {
		return err
	}
	var in Diagnosis
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	d, newToken, err := h.svc.UpdateDiagnosis(c.Request().Context(), id, token, &in)
	if err != nil {
		return err
	}
	occ.SetVersionHeaders(c, newToken, d.UpdatedAt)
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDiagnosis(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	if err := h.svc.DeleteDiagnosis(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

package contacts

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/routes/apierror"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Importer loads contacts into the tenant's store
type Importer interface {
	Import(ctx context.Context, contacts []models.ContactRecord) ([]models.ContactRecord, error)
}

// Handler handles contact API endpoints
type Handler struct {
	importer Importer
}

// NewHandler creates a new contacts handler
func NewHandler(importer Importer) *Handler {
	return &Handler{importer: importer}
}

// RegisterRoutes registers contact routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.PUT("/contacts", h.Import)
}

// ImportRequest is the request body for a bulk contact upsert
type ImportRequest struct {
	Contacts []models.ContactRecord `json:"contacts" validate:"required,min=1,dive"`
}

// ImportResponse lists the stored contacts with their IDs
type ImportResponse struct {
	Contacts []models.ContactRecord `json:"contacts"`
}

// Import handles PUT /contacts
func (h *Handler) Import(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "contacts_handler.Import")
	defer span.End()

	var req ImportRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	imported, err := h.importer.Import(ctx, req.Contacts)
	if err != nil {
		return apierror.FromError(err)
	}

	return c.JSON(http.StatusOK, ImportResponse{Contacts: imported})
}

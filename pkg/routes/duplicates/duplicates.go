package duplicates

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

// Service detects and merges duplicate contacts
type Service interface {
	Detect(ctx context.Context) (*models.DetectionResult, error)
	Merge(ctx context.Context, ids []string) (*models.MergeResult, error)
}

// Handler handles duplicate API endpoints
type Handler struct {
	service Service
}

// NewHandler creates a new duplicates handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers duplicate routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	dup := g.Group("/duplicates")
	dup.GET("", h.List)
	dup.POST("/merge", h.Merge)
}

// MergeRequest is the request body for merging contacts
type MergeRequest struct {
	ContactIDs []string `json:"contact_ids" validate:"required,dive,required"`
}

// List handles GET /duplicates
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "duplicates_handler.List")
	defer span.End()

	result, err := h.service.Detect(ctx)
	if err != nil {
		return apierror.FromError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// Merge handles POST /duplicates/merge
func (h *Handler) Merge(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "duplicates_handler.Merge")
	defer span.End()

	var req MergeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Merge(ctx, req.ContactIDs)
	if err != nil {
		return apierror.FromError(err)
	}

	return c.JSON(http.StatusOK, result)
}

package lcd

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/VerminX/SanctuaryThree-sub004/internal/domain/woundcare"
	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/auth"
)

const asOfLayout = "2006-01-02"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.ClinicalRoles...))
	g.GET("/wound-episodes/:id/medicare-compliance", h.GetEpisodeCompliance)
	g.POST("/medicare-compliance/assess", h.AssessBundle)
}

// AssessRequest is an episode bundle posted for an ad-hoc assessment.
type AssessRequest struct {
	woundcare.Bundle
	AsOf string `json:"as_of,omitempty"`
}

func parseAsOf(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(asOfLayout, v)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "as_of must be YYYY-MM-DD")
	}
	return t, nil
}

func (h *Handler) GetEpisodeCompliance(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	asOf, err := parseAsOf(c.QueryParam("as_of"))
	if err != nil {
		return err
	}
	res, err := h.svc.AssessEpisode(c.Request().Context(), id, asOf)
	if err != nil {
		if errors.Is(err, ErrEpisodeNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "wound episode not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "assessment failed")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) AssessBundle(c echo.Context) error {
	var req AssessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	asOf, err := parseAsOf(req.AsOf)
	if err != nil {
		return err
	}
	res, err := h.svc.Assess(c.Request().Context(), &req.Bundle, asOf)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

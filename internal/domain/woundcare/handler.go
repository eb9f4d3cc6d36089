package woundcare

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/auth"
	"github.com/VerminX/SanctuaryThree-sub004/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.ClinicalRoles...))
	g.POST("/wound-episodes", h.CreateEpisode)
	g.GET("/wound-episodes/:id", h.GetEpisode)
	g.POST("/wound-episodes/:id/encounters", h.AddEncounter)
	g.GET("/wound-episodes/:id/encounters", h.ListEncounters)
	g.POST("/wound-episodes/:id/exceptions", h.AddException)
	g.GET("/wound-episodes/:id/exceptions", h.ListExceptions)
}

func episodeID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func writeError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "wound episode not found")
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func (h *Handler) CreateEpisode(c echo.Context) error {
	var e Episode
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateEpisode(c.Request().Context(), &e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) GetEpisode(c echo.Context) error {
	id, err := episodeID(c)
	if err != nil {
		return err
	}
	e, err := h.svc.GetEpisode(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "wound episode not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) AddEncounter(c echo.Context) error {
	id, err := episodeID(c)
	if err != nil {
		return err
	}
	var e Encounter
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e.EpisodeID = id
	if err := h.svc.AddEncounter(c.Request().Context(), &e); err != nil {
		return writeError(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) ListEncounters(c echo.Context) error {
	id, err := episodeID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListEncounters(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.Slice(items, pagination.FromContext(c)))
}

func (h *Handler) AddException(c echo.Context) error {
	id, err := episodeID(c)
	if err != nil {
		return err
	}
	var d DocumentedException
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.EpisodeID = id
	if err := h.svc.AddException(c.Request().Context(), &d); err != nil {
		return writeError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListExceptions(c echo.Context) error {
	id, err := episodeID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListExceptions(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.Slice(items, pagination.FromContext(c)))
}

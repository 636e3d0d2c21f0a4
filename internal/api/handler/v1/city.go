package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rouemaroc/spinwheel/internal/api/handler/v1/request"
	"github.com/rouemaroc/spinwheel/internal/api/handler/v1/response"
	"github.com/rouemaroc/spinwheel/internal/api/middleware"
	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/service"
)

type CityService interface {
	CreateCity(ctx context.Context, input service.CityInput) (domain.City, error)
	UpdateCity(ctx context.Context, id uuid.UUID, input service.CityInput) (domain.City, error)
	DeleteCity(ctx context.Context, id uuid.UUID) error
	GetCity(ctx context.Context, id uuid.UUID) (domain.City, error)
	ListCities(ctx context.Context) ([]domain.City, error)
	Login(ctx context.Context, username, password string) (domain.City, error)
	CreateVenue(ctx context.Context, input service.VenueInput) (domain.Venue, error)
	UpdateVenue(ctx context.Context, id uuid.UUID, input service.VenueInput) (domain.Venue, error)
	DeleteVenue(ctx context.Context, id uuid.UUID) error
	ListVenues(ctx context.Context, cityID, campaignID *uuid.UUID) ([]domain.Venue, error)
}

type CityHandler struct {
	svc      CityService
	sessions *middleware.Sessions
}

func NewCityHandler(svc CityService, sessions *middleware.Sessions) *CityHandler {
	return &CityHandler{
		svc:      svc,
		sessions: sessions,
	}
}

// HandleLogin godoc
// @Summary      Open a city session
// @Description  Sets the city session cookie used by animators of that city.
// @Tags         cities
// @Produce      json
// @Param        request   body      request.LoginRequest true "request body"
// @Success      200      {object}   domain.City
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Router       /cities/login [post]
func (h *CityHandler) HandleLogin(ctx *gin.Context) {
	req := request.LoginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	city, err := h.svc.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrCityNotFound) || errors.Is(err, service.ErrWrongPassword) {
			response.RenderErr(ctx, response.ErrWrongCredentials(err))
			return
		}

		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleLogin -> h.svc.Login -> %w", err)))
		return
	}

	if err = h.sessions.SetCity(ctx, city.ID); err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleLogin -> h.sessions.SetCity -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, city)
}

// HandleLogout godoc
// @Summary      Close the city session
// @Tags         cities
// @Success      204
// @Router       /cities/logout [post]
func (h *CityHandler) HandleLogout(ctx *gin.Context) {
	h.sessions.ClearCity(ctx)
	ctx.Status(http.StatusNoContent)
}

// HandleMe godoc
// @Summary      Get the city of the current session
// @Tags         cities
// @Produce      json
// @Success      200      {object}   domain.City
// @Failure      401      {object}   response.Err
// @Router       /cities/me [get]
func (h *CityHandler) HandleMe(ctx *gin.Context) {
	cityID, ok := middleware.CityID(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("no city session")))
		return
	}

	city, err := h.svc.GetCity(ctx.Request.Context(), cityID)
	if err != nil {
		if errors.Is(err, service.ErrCityNotFound) {
			h.sessions.ClearCity(ctx)
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}

		response.RenderErr(ctx, adminErr("v1.HandleMe -> h.svc.GetCity", err))
		return
	}

	ctx.JSON(http.StatusOK, city)
}

// HandleListCities godoc
// @Summary      List cities
// @Tags         admin
// @Produce      json
// @Success      200      {array}    domain.City
// @Router       /admin/cities [get]
// @Security     BearerAuth
func (h *CityHandler) HandleListCities(ctx *gin.Context) {
	cities, err := h.svc.ListCities(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleListCities -> h.svc.ListCities", err))
		return
	}

	ctx.JSON(http.StatusOK, cities)
}

// HandleCreateCity godoc
// @Summary      Create a city
// @Tags         admin
// @Produce      json
// @Param        request   body      request.CityRequest true "request body"
// @Success      201      {object}   domain.City
// @Failure      400      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Router       /admin/cities [post]
// @Security     BearerAuth
func (h *CityHandler) HandleCreateCity(ctx *gin.Context) {
	var req request.CityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(true); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	city, err := h.svc.CreateCity(ctx.Request.Context(), service.CityInput{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleCreateCity -> h.svc.CreateCity", err))
		return
	}

	ctx.JSON(http.StatusCreated, city)
}

// HandleUpdateCity godoc
// @Summary      Update a city
// @Description  An empty password keeps the current one.
// @Tags         admin
// @Produce      json
// @Param        cityID    path      string  true  "City ID"
// @Param        request   body      request.CityRequest true "request body"
// @Success      200      {object}   domain.City
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /admin/cities/{cityID} [put]
// @Security     BearerAuth
func (h *CityHandler) HandleUpdateCity(ctx *gin.Context) {
	cityID, ok := uuidParam(ctx, "cityID")
	if !ok {
		return
	}

	var req request.CityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(false); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	city, err := h.svc.UpdateCity(ctx.Request.Context(), cityID, service.CityInput{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleUpdateCity -> h.svc.UpdateCity", err))
		return
	}

	ctx.JSON(http.StatusOK, city)
}

// HandleDeleteCity godoc
// @Summary      Delete a city
// @Tags         admin
// @Param        cityID    path      string  true  "City ID"
// @Success      204
// @Failure      404      {object}   response.Err
// @Router       /admin/cities/{cityID} [delete]
// @Security     BearerAuth
func (h *CityHandler) HandleDeleteCity(ctx *gin.Context) {
	cityID, ok := uuidParam(ctx, "cityID")
	if !ok {
		return
	}

	if err := h.svc.DeleteCity(ctx.Request.Context(), cityID); err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleDeleteCity -> h.svc.DeleteCity", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleListVenues godoc
// @Summary      List venues
// @Tags         admin
// @Produce      json
// @Param        city_id      query    string  false  "City ID"
// @Param        campaign_id  query    string  false  "Campaign ID"
// @Success      200      {array}    domain.Venue
// @Router       /admin/venues [get]
// @Security     BearerAuth
func (h *CityHandler) HandleListVenues(ctx *gin.Context) {
	cityID, ok := uuidQuery(ctx, "city_id")
	if !ok {
		return
	}
	campaignID, ok := uuidQuery(ctx, "campaign_id")
	if !ok {
		return
	}

	venues, err := h.svc.ListVenues(ctx.Request.Context(), cityID, campaignID)
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleListVenues -> h.svc.ListVenues", err))
		return
	}

	ctx.JSON(http.StatusOK, venues)
}

// HandleCreateVenue godoc
// @Summary      Create a venue
// @Tags         admin
// @Produce      json
// @Param        request   body      request.VenueRequest true "request body"
// @Success      201      {object}   domain.Venue
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /admin/venues [post]
// @Security     BearerAuth
func (h *CityHandler) HandleCreateVenue(ctx *gin.Context) {
	var req request.VenueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	venue, err := h.svc.CreateVenue(ctx.Request.Context(), venueInput(req))
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleCreateVenue -> h.svc.CreateVenue", err))
		return
	}

	ctx.JSON(http.StatusCreated, venue)
}

// HandleUpdateVenue godoc
// @Summary      Update a venue
// @Tags         admin
// @Produce      json
// @Param        venueID   path      string  true  "Venue ID"
// @Param        request   body      request.VenueRequest true "request body"
// @Success      200      {object}   domain.Venue
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /admin/venues/{venueID} [put]
// @Security     BearerAuth
func (h *CityHandler) HandleUpdateVenue(ctx *gin.Context) {
	venueID, ok := uuidParam(ctx, "venueID")
	if !ok {
		return
	}

	var req request.VenueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	venue, err := h.svc.UpdateVenue(ctx.Request.Context(), venueID, venueInput(req))
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleUpdateVenue -> h.svc.UpdateVenue", err))
		return
	}

	ctx.JSON(http.StatusOK, venue)
}

// HandleDeleteVenue godoc
// @Summary      Delete a venue
// @Tags         admin
// @Param        venueID   path      string  true  "Venue ID"
// @Success      204
// @Failure      404      {object}   response.Err
// @Router       /admin/venues/{venueID} [delete]
// @Security     BearerAuth
func (h *CityHandler) HandleDeleteVenue(ctx *gin.Context) {
	venueID, ok := uuidParam(ctx, "venueID")
	if !ok {
		return
	}

	if err := h.svc.DeleteVenue(ctx.Request.Context(), venueID); err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleDeleteVenue -> h.svc.DeleteVenue", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

func venueInput(req request.VenueRequest) service.VenueInput {
	return service.VenueInput{
		Name:       req.Name,
		Type:       req.Type,
		CityID:     req.CityID,
		CampaignID: req.CampaignID,
	}
}

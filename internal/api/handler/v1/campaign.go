package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rouemaroc/spinwheel/internal/api/handler/v1/request"
	"github.com/rouemaroc/spinwheel/internal/api/handler/v1/response"
	"github.com/rouemaroc/spinwheel/internal/api/middleware"
	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/service"
)

const (
	defaultQRSize = 512
	maxQRSize     = 2048
)

var errCampaignLocked = errors.New("this campaign requires an access code")

type CampaignService interface {
	CreateCampaign(ctx context.Context, input service.CampaignInput) (domain.Campaign, error)
	UpdateCampaign(ctx context.Context, id uuid.UUID, input service.CampaignInput) (domain.Campaign, error)
	DeleteCampaign(ctx context.Context, id uuid.UUID) error
	GetCampaign(ctx context.Context, id uuid.UUID) (domain.Campaign, error)
	GetCampaignBySlug(ctx context.Context, slug string) (domain.Campaign, error)
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)
	VerifyAccess(ctx context.Context, slug, username, password string) (domain.Campaign, error)
	QRCode(ctx context.Context, id uuid.UUID, size int) ([]byte, error)
	ListCityLimits(ctx context.Context, campaignID uuid.UUID) ([]domain.CampaignCityLimit, error)
	SetCityLimit(ctx context.Context, limit domain.CampaignCityLimit) (domain.CampaignCityLimit, error)
	RemoveCityLimit(ctx context.Context, campaignID, cityID uuid.UUID) error
}

type AvailabilityResolver interface {
	Resolve(ctx context.Context, campaignID, cityID, venueID *uuid.UUID) ([]domain.GiftAvailability, error)
}

type VenueLister interface {
	ListVenues(ctx context.Context, cityID, campaignID *uuid.UUID) ([]domain.Venue, error)
}

type CampaignHandler struct {
	svc      CampaignService
	resolver AvailabilityResolver
	venues   VenueLister
	sessions *middleware.Sessions
}

func NewCampaignHandler(svc CampaignService, resolver AvailabilityResolver, venues VenueLister, sessions *middleware.Sessions) *CampaignHandler {
	return &CampaignHandler{
		svc:      svc,
		resolver: resolver,
		venues:   venues,
		sessions: sessions,
	}
}

// HandleGetCampaign godoc
// @Summary      Get a campaign by slug
// @Tags         campaigns
// @Produce      json
// @Param        slug      path      string  true  "Campaign slug"
// @Success      200      {object}   response.PublicCampaign
// @Failure      404      {object}   response.Err
// @Router       /campaigns/{slug} [get]
func (h *CampaignHandler) HandleGetCampaign(ctx *gin.Context) {
	campaign, ok := h.campaignBySlug(ctx)
	if !ok {
		return
	}

	out, err := response.NewPublicCampaign(campaign, hasAccess(ctx, campaign))
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleGetCampaign -> response.NewPublicCampaign -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, out)
}

// HandleAccess godoc
// @Summary      Unlock a gated campaign
// @Description  Checks the shared credentials and sets the campaign access cookie.
// @Tags         campaigns
// @Produce      json
// @Param        slug      path      string  true  "Campaign slug"
// @Param        request   body      request.AccessRequest true "request body"
// @Success      200      {object}   response.PublicCampaign
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /campaigns/{slug}/access [post]
func (h *CampaignHandler) HandleAccess(ctx *gin.Context) {
	var req request.AccessRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	campaign, err := h.svc.VerifyAccess(ctx.Request.Context(), ctx.Param("slug"), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			response.RenderErr(ctx, response.ErrWrongCredentials(err))
			return
		}
		if errors.Is(err, service.ErrCampaignNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("campaign", "slug", ctx.Param("slug")))
			return
		}

		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleAccess -> h.svc.VerifyAccess -> %w", err)))
		return
	}

	if err = h.sessions.SetCampaignAccess(ctx, campaign.ID); err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleAccess -> h.sessions.SetCampaignAccess -> %w", err)))
		return
	}

	out, err := response.NewPublicCampaign(campaign, true)
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, out)
}

// HandleListCampaignVenues godoc
// @Summary      List the venues of a campaign
// @Description  Without city_id, the city of the current session is used when there is one.
// @Tags         campaigns
// @Produce      json
// @Param        slug      path      string  true   "Campaign slug"
// @Param        city_id   query     string  false  "City ID"
// @Success      200      {array}    domain.Venue
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /campaigns/{slug}/venues [get]
func (h *CampaignHandler) HandleListCampaignVenues(ctx *gin.Context) {
	campaign, ok := h.unlockedCampaign(ctx)
	if !ok {
		return
	}

	cityID, ok := cityScope(ctx)
	if !ok {
		return
	}

	venues, err := h.venues.ListVenues(ctx.Request.Context(), cityID, &campaign.ID)
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleListCampaignVenues -> h.venues.ListVenues", err))
		return
	}

	ctx.JSON(http.StatusOK, venues)
}

// HandleAvailability godoc
// @Summary      Gifts of the wheel and their availability
// @Tags         campaigns
// @Produce      json
// @Param        slug      path      string  true   "Campaign slug"
// @Param        city_id   query     string  false  "City ID"
// @Param        venue_id  query     string  false  "Venue ID"
// @Success      200      {array}    response.WheelGift
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      503      {object}   response.Err
// @Router       /campaigns/{slug}/availability [get]
func (h *CampaignHandler) HandleAvailability(ctx *gin.Context) {
	campaign, ok := h.unlockedCampaign(ctx)
	if !ok {
		return
	}

	cityID, ok := cityScope(ctx)
	if !ok {
		return
	}
	venueID, ok := uuidQuery(ctx, "venue_id")
	if !ok {
		return
	}

	availability, err := h.resolver.Resolve(ctx.Request.Context(), &campaign.ID, cityID, venueID)
	if err != nil {
		response.RenderErr(ctx, spinErr(err))
		return
	}

	wheel, err := response.NewWheel(availability)
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleAvailability -> response.NewWheel -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, wheel)
}

// HandleListCampaigns godoc
// @Summary      List campaigns
// @Tags         admin
// @Produce      json
// @Success      200      {array}    domain.Campaign
// @Router       /admin/campaigns [get]
// @Security     BearerAuth
func (h *CampaignHandler) HandleListCampaigns(ctx *gin.Context) {
	campaigns, err := h.svc.ListCampaigns(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleListCampaigns -> h.svc.ListCampaigns", err))
		return
	}

	ctx.JSON(http.StatusOK, campaigns)
}

// HandleGetCampaignByID godoc
// @Summary      Get a campaign
// @Tags         admin
// @Produce      json
// @Param        campaignID  path    string  true  "Campaign ID"
// @Success      200      {object}   domain.Campaign
// @Failure      404      {object}   response.Err
// @Router       /admin/campaigns/{campaignID} [get]
// @Security     BearerAuth
func (h *CampaignHandler) HandleGetCampaignByID(ctx *gin.Context) {
	campaignID, ok := uuidParam(ctx, "campaignID")
	if !ok {
		return
	}

	campaign, err := h.svc.GetCampaign(ctx.Request.Context(), campaignID)
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleGetCampaignByID -> h.svc.GetCampaign", err))
		return
	}

	ctx.JSON(http.StatusOK, campaign)
}

// HandleCreateCampaign godoc
// @Summary      Create a campaign
// @Description  The slug is generated from the name when omitted.
// @Tags         admin
// @Produce      json
// @Param        request   body      request.CampaignRequest true "request body"
// @Success      201      {object}   domain.Campaign
// @Failure      400      {object}   response.Err
// @Router       /admin/campaigns [post]
// @Security     BearerAuth
func (h *CampaignHandler) HandleCreateCampaign(ctx *gin.Context) {
	var req request.CampaignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	campaign, err := h.svc.CreateCampaign(ctx.Request.Context(), campaignInput(req))
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleCreateCampaign -> h.svc.CreateCampaign", err))
		return
	}

	ctx.JSON(http.StatusCreated, campaign)
}

// HandleUpdateCampaign godoc
// @Summary      Update a campaign
// @Description  An empty access_password keeps the current one; an empty access_username removes the gate.
// @Tags         admin
// @Produce      json
// @Param        campaignID  path    string  true  "Campaign ID"
// @Param        request   body      request.CampaignRequest true "request body"
// @Success      200      {object}   domain.Campaign
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /admin/campaigns/{campaignID} [put]
// @Security     BearerAuth
func (h *CampaignHandler) HandleUpdateCampaign(ctx *gin.Context) {
	campaignID, ok := uuidParam(ctx, "campaignID")
	if !ok {
		return
	}

	var req request.CampaignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	campaign, err := h.svc.UpdateCampaign(ctx.Request.Context(), campaignID, campaignInput(req))
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleUpdateCampaign -> h.svc.UpdateCampaign", err))
		return
	}

	ctx.JSON(http.StatusOK, campaign)
}

// HandleDeleteCampaign godoc
// @Summary      Delete a campaign
// @Tags         admin
// @Param        campaignID  path    string  true  "Campaign ID"
// @Success      204
// @Failure      404      {object}   response.Err
// @Router       /admin/campaigns/{campaignID} [delete]
// @Security     BearerAuth
func (h *CampaignHandler) HandleDeleteCampaign(ctx *gin.Context) {
	campaignID, ok := uuidParam(ctx, "campaignID")
	if !ok {
		return
	}

	if err := h.svc.DeleteCampaign(ctx.Request.Context(), campaignID); err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleDeleteCampaign -> h.svc.DeleteCampaign", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleQRCode godoc
// @Summary      QR code of the public campaign page
// @Tags         admin
// @Produce      png
// @Param        campaignID  path    string  true   "Campaign ID"
// @Param        size        query   int     false  "Size in pixels"
// @Success      200      {file}     binary
// @Failure      404      {object}   response.Err
// @Router       /admin/campaigns/{campaignID}/qrcode [get]
// @Security     BearerAuth
func (h *CampaignHandler) HandleQRCode(ctx *gin.Context) {
	campaignID, ok := uuidParam(ctx, "campaignID")
	if !ok {
		return
	}

	size := defaultQRSize
	if raw := ctx.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > maxQRSize {
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("size must be between 64 and %d", maxQRSize)))
			return
		}
		size = n
	}

	png, err := h.svc.QRCode(ctx.Request.Context(), campaignID, size)
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleQRCode -> h.svc.QRCode", err))
		return
	}

	ctx.Data(http.StatusOK, "image/png", png)
}

// HandleListCityLimits godoc
// @Summary      City limits of a campaign
// @Tags         admin
// @Produce      json
// @Param        campaignID  path    string  true  "Campaign ID"
// @Success      200      {array}    domain.CampaignCityLimit
// @Router       /admin/campaigns/{campaignID}/city-limits [get]
// @Security     BearerAuth
func (h *CampaignHandler) HandleListCityLimits(ctx *gin.Context) {
	campaignID, ok := uuidParam(ctx, "campaignID")
	if !ok {
		return
	}

	limits, err := h.svc.ListCityLimits(ctx.Request.Context(), campaignID)
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleListCityLimits -> h.svc.ListCityLimits", err))
		return
	}

	ctx.JSON(http.StatusOK, limits)
}

// HandleSetCityLimit godoc
// @Summary      Create or replace a campaign city limit
// @Tags         admin
// @Produce      json
// @Param        campaignID  path    string  true  "Campaign ID"
// @Param        request   body      request.CampaignCityLimitRequest true "request body"
// @Success      200      {object}   domain.CampaignCityLimit
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /admin/campaigns/{campaignID}/city-limits [put]
// @Security     BearerAuth
func (h *CampaignHandler) HandleSetCityLimit(ctx *gin.Context) {
	campaignID, ok := uuidParam(ctx, "campaignID")
	if !ok {
		return
	}

	var req request.CampaignCityLimitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	limit, err := h.svc.SetCityLimit(ctx.Request.Context(), domain.CampaignCityLimit{
		CampaignID: campaignID,
		CityID:     req.CityID,
		MaxWinners: req.MaxWinners,
	})
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleSetCityLimit -> h.svc.SetCityLimit", err))
		return
	}

	ctx.JSON(http.StatusOK, limit)
}

// HandleDeleteCityLimit godoc
// @Summary      Remove a campaign city limit
// @Tags         admin
// @Param        campaignID  path    string  true  "Campaign ID"
// @Param        cityID      path    string  true  "City ID"
// @Success      204
// @Failure      404      {object}   response.Err
// @Router       /admin/campaigns/{campaignID}/city-limits/{cityID} [delete]
// @Security     BearerAuth
func (h *CampaignHandler) HandleDeleteCityLimit(ctx *gin.Context) {
	campaignID, ok := uuidParam(ctx, "campaignID")
	if !ok {
		return
	}
	cityID, ok := uuidParam(ctx, "cityID")
	if !ok {
		return
	}

	if err := h.svc.RemoveCityLimit(ctx.Request.Context(), campaignID, cityID); err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleDeleteCityLimit -> h.svc.RemoveCityLimit", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *CampaignHandler) campaignBySlug(ctx *gin.Context) (domain.Campaign, bool) {
	slug := ctx.Param("slug")

	campaign, err := h.svc.GetCampaignBySlug(ctx.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("campaign", "slug", slug))
			return domain.Campaign{}, false
		}

		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("h.svc.GetCampaignBySlug -> %w", err)))
		return domain.Campaign{}, false
	}

	return campaign, true
}

// unlockedCampaign loads the campaign of the slug and refuses visitors who
// have not passed its gate.
func (h *CampaignHandler) unlockedCampaign(ctx *gin.Context) (domain.Campaign, bool) {
	campaign, ok := h.campaignBySlug(ctx)
	if !ok {
		return domain.Campaign{}, false
	}

	if !hasAccess(ctx, campaign) {
		response.RenderErr(ctx, response.ErrPermissionDenied(errCampaignLocked))
		return domain.Campaign{}, false
	}

	return campaign, true
}

func hasAccess(ctx *gin.Context, campaign domain.Campaign) bool {
	if !campaign.Gated() {
		return true
	}

	id, ok := middleware.CampaignAccessID(ctx)

	return ok && id == campaign.ID
}

// cityScope returns the city_id query value, or the city of the session.
func cityScope(ctx *gin.Context) (*uuid.UUID, bool) {
	cityID, ok := uuidQuery(ctx, "city_id")
	if !ok || cityID != nil {
		return cityID, ok
	}

	if id, ok := middleware.CityID(ctx); ok {
		return &id, true
	}

	return nil, true
}

func campaignInput(req request.CampaignRequest) service.CampaignInput {
	return service.CampaignInput{
		Name:           req.Name,
		Slug:           req.Slug,
		Description:    req.Description,
		Theme:          req.Theme,
		IsActive:       req.Active(),
		AccessUsername: req.AccessUsername,
		AccessPassword: req.AccessPassword,
	}
}

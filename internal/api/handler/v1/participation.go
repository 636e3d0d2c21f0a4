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
	defaultPageSize = 50
	maxPageSize     = 500
)

type ParticipationService interface {
	Register(ctx context.Context, input service.RegisterInput) (domain.TicketIssue, error)
	Replay(ctx context.Context, participantID uuid.UUID) (domain.TicketIssue, error)
	GetSpin(ctx context.Context, participantID uuid.UUID) (domain.SpinView, error)
	ListParticipants(ctx context.Context, query domain.ParticipantQuery) ([]domain.Participant, error)
}

type AllocationService interface {
	FinalizeSpin(ctx context.Context, participantID, giftID uuid.UUID) (domain.SpinResult, error)
}

type CampaignFinder interface {
	GetCampaignBySlug(ctx context.Context, slug string) (domain.Campaign, error)
}

type ParticipationHandler struct {
	svc       ParticipationService
	alloc     AllocationService
	campaigns CampaignFinder
}

func NewParticipationHandler(svc ParticipationService, alloc AllocationService, campaigns CampaignFinder) *ParticipationHandler {
	return &ParticipationHandler{
		svc:       svc,
		alloc:     alloc,
		campaigns: campaigns,
	}
}

// HandleRegister godoc
// @Summary      Register a participation
// @Description  Issues a ticket ready to spin. Without city_id the city of the session is used.
// @Tags         participations
// @Produce      json
// @Param        slug      path      string  true  "Campaign slug"
// @Param        request   body      request.RegisterRequest true "request body"
// @Success      201      {object}   domain.TicketIssue
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      503      {object}   response.Err
// @Router       /campaigns/{slug}/participations [post]
func (h *ParticipationHandler) HandleRegister(ctx *gin.Context) {
	var req request.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	slug := ctx.Param("slug")
	campaign, err := h.campaigns.GetCampaignBySlug(ctx.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("campaign", "slug", slug))
			return
		}

		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleRegister -> h.campaigns.GetCampaignBySlug -> %w", err)))
		return
	}

	if !hasAccess(ctx, campaign) {
		response.RenderErr(ctx, response.ErrPermissionDenied(errCampaignLocked))
		return
	}

	cityID := req.CityID
	if cityID == nil {
		if id, ok := middleware.CityID(ctx); ok {
			cityID = &id
		}
	}

	ticket, err := h.svc.Register(ctx.Request.Context(), service.RegisterInput{
		CampaignID:    campaign.ID,
		Name:          req.Name,
		Code:          req.Code,
		CityID:        cityID,
		VenueID:       req.VenueID,
		AgreedToTerms: req.AgreedToTerms,
	})
	if err != nil {
		response.RenderErr(ctx, registerErr(err))
		return
	}

	ctx.JSON(http.StatusCreated, ticket)
}

// HandleGetSpin godoc
// @Summary      Get a ticket and its wheel
// @Tags         spins
// @Produce      json
// @Param        participantID  path  string  true  "Participant ID"
// @Success      200      {object}   response.SpinResponse
// @Failure      404      {object}   response.Err
// @Failure      503      {object}   response.Err
// @Router       /spins/{participantID} [get]
func (h *ParticipationHandler) HandleGetSpin(ctx *gin.Context) {
	participantID, ok := uuidParam(ctx, "participantID")
	if !ok {
		return
	}

	view, err := h.svc.GetSpin(ctx.Request.Context(), participantID)
	if err != nil {
		response.RenderErr(ctx, spinErr(err))
		return
	}

	wheel, err := response.NewWheel(view.Availability)
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleGetSpin -> response.NewWheel -> %w", err)))
		return
	}

	out := response.SpinResponse{
		Participant: view.Participant,
		Gifts:       wheel,
	}
	if view.Campaign != nil {
		campaign, err := response.NewPublicCampaign(*view.Campaign, true)
		if err != nil {
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}
		out.Campaign = &campaign
	}

	ctx.JSON(http.StatusOK, out)
}

// HandleFinalize godoc
// @Summary      Award the gift the wheel landed on
// @Description  Campaign, city and venue come from the ticket. 409 responses carry a code and a message for the participant.
// @Tags         spins
// @Produce      json
// @Param        participantID  path  string  true  "Participant ID"
// @Param        request   body      request.FinalizeRequest true "request body"
// @Success      200      {object}   domain.SpinResult
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      503      {object}   response.Err
// @Router       /spins/{participantID}/finalize [post]
func (h *ParticipationHandler) HandleFinalize(ctx *gin.Context) {
	participantID, ok := uuidParam(ctx, "participantID")
	if !ok {
		return
	}

	var req request.FinalizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.alloc.FinalizeSpin(ctx.Request.Context(), participantID, req.GiftID)
	if err != nil {
		response.RenderErr(ctx, spinErr(err))
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleReplay godoc
// @Summary      Issue a new ticket for a participant who already won
// @Tags         spins
// @Produce      json
// @Param        participantID  path  string  true  "Participant ID"
// @Success      201      {object}   domain.TicketIssue
// @Success      200      {object}   domain.TicketIssue  "ticket has not spun yet and is returned as is"
// @Failure      404      {object}   response.Err
// @Failure      503      {object}   response.Err
// @Router       /spins/{participantID}/replay [post]
func (h *ParticipationHandler) HandleReplay(ctx *gin.Context) {
	participantID, ok := uuidParam(ctx, "participantID")
	if !ok {
		return
	}

	ticket, err := h.svc.Replay(ctx.Request.Context(), participantID)
	if err != nil {
		response.RenderErr(ctx, spinErr(err))
		return
	}

	status := http.StatusCreated
	if ticket.Outcome == domain.Reused {
		status = http.StatusOK
	}

	ctx.JSON(status, ticket)
}

// HandleListParticipants godoc
// @Summary      List participants
// @Tags         admin
// @Produce      json
// @Param        campaign_id  query  string  false  "Campaign ID"
// @Param        won          query  bool    false  "Only winners, or only non winners"
// @Param        limit        query  int     false  "Page size"
// @Param        offset       query  int     false  "Offset"
// @Success      200      {array}    domain.Participant
// @Failure      400      {object}   response.Err
// @Router       /admin/participants [get]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleListParticipants(ctx *gin.Context) {
	campaignID, ok := uuidQuery(ctx, "campaign_id")
	if !ok {
		return
	}

	query := domain.ParticipantQuery{
		CampaignID: campaignID,
		Limit:      defaultPageSize,
	}

	if raw := ctx.Query("won"); raw != "" {
		won, err := strconv.ParseBool(raw)
		if err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid won: %w", err)))
			return
		}
		query.Won = &won
	}

	var err error
	if query.Limit, err = intQuery(ctx, "limit", defaultPageSize); err != nil || query.Limit < 1 || query.Limit > maxPageSize {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("limit must be between 1 and %d", maxPageSize)))
		return
	}
	if query.Offset, err = intQuery(ctx, "offset", 0); err != nil || query.Offset < 0 {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("offset must be a positive number")))
		return
	}

	participants, err := h.svc.ListParticipants(ctx.Request.Context(), query)
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleListParticipants -> h.svc.ListParticipants", err))
		return
	}

	ctx.JSON(http.StatusOK, participants)
}

func registerErr(err error) *response.Err {
	switch {
	case errors.Is(err, service.ErrInvalidParticipation),
		errors.Is(err, service.ErrTermsNotAccepted),
		errors.Is(err, service.ErrVenueCityMismatch),
		errors.Is(err, service.ErrVenueCampaignMismatch),
		errors.Is(err, service.ErrNotFound):
		return response.ErrBadRequest(err)
	case errors.Is(err, service.ErrCampaignInactive):
		return response.ErrPermissionDenied(err)
	default:
		return spinErr(err)
	}
}

func intQuery(ctx *gin.Context, name string, fallback int) (int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return fallback, nil
	}

	return strconv.Atoi(raw)
}

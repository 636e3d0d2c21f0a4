package v1

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rouemaroc/spinwheel/internal/api/handler/v1/request"
	"github.com/rouemaroc/spinwheel/internal/api/handler/v1/response"
	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/service"
)

const maxImageSize = 5 << 20

type GiftService interface {
	CreateGift(ctx context.Context, input service.GiftInput) (domain.Gift, error)
	UpdateGift(ctx context.Context, id uuid.UUID, input service.GiftInput) (domain.Gift, error)
	DeleteGift(ctx context.Context, id uuid.UUID) error
	GetGift(ctx context.Context, id uuid.UUID) (domain.Gift, error)
	ListGifts(ctx context.Context, campaignID *uuid.UUID) ([]domain.Gift, error)
	UploadImage(ctx context.Context, id uuid.UUID, file io.Reader) (domain.Gift, error)
	ListCityLimits(ctx context.Context, giftID uuid.UUID) ([]domain.GiftCityLimit, error)
	SetCityLimit(ctx context.Context, limit domain.GiftCityLimit) (domain.GiftCityLimit, error)
	RemoveCityLimit(ctx context.Context, giftID, cityID uuid.UUID) error
	ListVenueLimits(ctx context.Context, giftID uuid.UUID) ([]domain.GiftVenueLimit, error)
	SetVenueLimit(ctx context.Context, limit domain.GiftVenueLimit) (domain.GiftVenueLimit, error)
	RemoveVenueLimit(ctx context.Context, giftID, venueID uuid.UUID) error
	ResetGift(ctx context.Context, id uuid.UUID) ([]domain.Gift, error)
	ResetCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.Gift, error)
	ResetAll(ctx context.Context) ([]domain.Gift, error)
}

type GiftHandler struct {
	svc GiftService
}

func NewGiftHandler(svc GiftService) *GiftHandler {
	return &GiftHandler{
		svc: svc,
	}
}

// HandleListGifts godoc
// @Summary      List gifts
// @Tags         admin
// @Produce      json
// @Param        campaign_id  query  string  false  "Campaign ID"
// @Success      200      {array}    domain.Gift
// @Router       /admin/gifts [get]
// @Security     BearerAuth
func (h *GiftHandler) HandleListGifts(ctx *gin.Context) {
	campaignID, ok := uuidQuery(ctx, "campaign_id")
	if !ok {
		return
	}

	gifts, err := h.svc.ListGifts(ctx.Request.Context(), campaignID)
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleListGifts -> h.svc.ListGifts", err))
		return
	}

	ctx.JSON(http.StatusOK, gifts)
}

// HandleGetGift godoc
// @Summary      Get a gift
// @Tags         admin
// @Produce      json
// @Param        giftID    path      string  true  "Gift ID"
// @Success      200      {object}   domain.Gift
// @Failure      404      {object}   response.Err
// @Router       /admin/gifts/{giftID} [get]
// @Security     BearerAuth
func (h *GiftHandler) HandleGetGift(ctx *gin.Context) {
	giftID, ok := uuidParam(ctx, "giftID")
	if !ok {
		return
	}

	gift, err := h.svc.GetGift(ctx.Request.Context(), giftID)
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleGetGift -> h.svc.GetGift", err))
		return
	}

	ctx.JSON(http.StatusOK, gift)
}

// HandleCreateGift godoc
// @Summary      Create a gift
// @Description  max_winners null means unlimited.
// @Tags         admin
// @Produce      json
// @Param        request   body      request.GiftRequest true "request body"
// @Success      201      {object}   domain.Gift
// @Failure      400      {object}   response.Err
// @Router       /admin/gifts [post]
// @Security     BearerAuth
func (h *GiftHandler) HandleCreateGift(ctx *gin.Context) {
	var req request.GiftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	gift, err := h.svc.CreateGift(ctx.Request.Context(), giftInput(req))
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleCreateGift -> h.svc.CreateGift", err))
		return
	}

	ctx.JSON(http.StatusCreated, gift)
}

// HandleUpdateGift godoc
// @Summary      Update a gift
// @Description  The winner counter is not writable here.
// @Tags         admin
// @Produce      json
// @Param        giftID    path      string  true  "Gift ID"
// @Param        request   body      request.GiftRequest true "request body"
// @Success      200      {object}   domain.Gift
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /admin/gifts/{giftID} [put]
// @Security     BearerAuth
func (h *GiftHandler) HandleUpdateGift(ctx *gin.Context) {
	giftID, ok := uuidParam(ctx, "giftID")
	if !ok {
		return
	}

	var req request.GiftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	gift, err := h.svc.UpdateGift(ctx.Request.Context(), giftID, giftInput(req))
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleUpdateGift -> h.svc.UpdateGift", err))
		return
	}

	ctx.JSON(http.StatusOK, gift)
}

// HandleDeleteGift godoc
// @Summary      Delete a gift
// @Tags         admin
// @Param        giftID    path      string  true  "Gift ID"
// @Success      204
// @Failure      404      {object}   response.Err
// @Router       /admin/gifts/{giftID} [delete]
// @Security     BearerAuth
func (h *GiftHandler) HandleDeleteGift(ctx *gin.Context) {
	giftID, ok := uuidParam(ctx, "giftID")
	if !ok {
		return
	}

	if err := h.svc.DeleteGift(ctx.Request.Context(), giftID); err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleDeleteGift -> h.svc.DeleteGift", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleUploadImage godoc
// @Summary      Upload the picture of a gift
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Param        giftID    path      string  true  "Gift ID"
// @Param        image     formData  file    true  "Image file"
// @Success      200      {object}   domain.Gift
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      503      {object}   response.Err
// @Router       /admin/gifts/{giftID}/image [post]
// @Security     BearerAuth
func (h *GiftHandler) HandleUploadImage(ctx *gin.Context) {
	giftID, ok := uuidParam(ctx, "giftID")
	if !ok {
		return
	}

	header, err := ctx.FormFile("image")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("image is required: %w", err)))
		return
	}
	if header.Size > maxImageSize {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("image is larger than %d bytes", maxImageSize)))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	defer file.Close()

	gift, err := h.svc.UploadImage(ctx.Request.Context(), giftID, file)
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleUploadImage -> h.svc.UploadImage", err))
		return
	}

	ctx.JSON(http.StatusOK, gift)
}

// HandleListCityLimits godoc
// @Summary      City limits of a gift
// @Tags         admin
// @Produce      json
// @Param        giftID    path      string  true  "Gift ID"
// @Success      200      {array}    domain.GiftCityLimit
// @Router       /admin/gifts/{giftID}/city-limits [get]
// @Security     BearerAuth
func (h *GiftHandler) HandleListCityLimits(ctx *gin.Context) {
	giftID, ok := uuidParam(ctx, "giftID")
	if !ok {
		return
	}

	limits, err := h.svc.ListCityLimits(ctx.Request.Context(), giftID)
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleListCityLimits -> h.svc.ListCityLimits", err))
		return
	}

	ctx.JSON(http.StatusOK, limits)
}

// HandleSetCityLimit godoc
// @Summary      Create or replace a gift city limit
// @Tags         admin
// @Produce      json
// @Param        giftID    path      string  true  "Gift ID"
// @Param        request   body      request.GiftCityLimitRequest true "request body"
// @Success      200      {object}   domain.GiftCityLimit
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /admin/gifts/{giftID}/city-limits [put]
// @Security     BearerAuth
func (h *GiftHandler) HandleSetCityLimit(ctx *gin.Context) {
	giftID, ok := uuidParam(ctx, "giftID")
	if !ok {
		return
	}

	var req request.GiftCityLimitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	limit, err := h.svc.SetCityLimit(ctx.Request.Context(), domain.GiftCityLimit{
		GiftID:     giftID,
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
// @Summary      Remove a gift city limit
// @Tags         admin
// @Param        giftID    path      string  true  "Gift ID"
// @Param        cityID    path      string  true  "City ID"
// @Success      204
// @Failure      404      {object}   response.Err
// @Router       /admin/gifts/{giftID}/city-limits/{cityID} [delete]
// @Security     BearerAuth
func (h *GiftHandler) HandleDeleteCityLimit(ctx *gin.Context) {
	giftID, ok := uuidParam(ctx, "giftID")
	if !ok {
		return
	}
	cityID, ok := uuidParam(ctx, "cityID")
	if !ok {
		return
	}

	if err := h.svc.RemoveCityLimit(ctx.Request.Context(), giftID, cityID); err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleDeleteCityLimit -> h.svc.RemoveCityLimit", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleListVenueLimits godoc
// @Summary      Venue stock of a gift
// @Tags         admin
// @Produce      json
// @Param        giftID    path      string  true  "Gift ID"
// @Success      200      {array}    domain.GiftVenueLimit
// @Router       /admin/gifts/{giftID}/venue-limits [get]
// @Security     BearerAuth
func (h *GiftHandler) HandleListVenueLimits(ctx *gin.Context) {
	giftID, ok := uuidParam(ctx, "giftID")
	if !ok {
		return
	}

	limits, err := h.svc.ListVenueLimits(ctx.Request.Context(), giftID)
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleListVenueLimits -> h.svc.ListVenueLimits", err))
		return
	}

	ctx.JSON(http.StatusOK, limits)
}

// HandleSetVenueLimit godoc
// @Summary      Create or replace the stock of a gift at a venue
// @Description  Once a gift has venue stock, its global ceiling is the sum of that stock.
// @Tags         admin
// @Produce      json
// @Param        giftID    path      string  true  "Gift ID"
// @Param        request   body      request.GiftVenueLimitRequest true "request body"
// @Success      200      {object}   domain.GiftVenueLimit
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /admin/gifts/{giftID}/venue-limits [put]
// @Security     BearerAuth
func (h *GiftHandler) HandleSetVenueLimit(ctx *gin.Context) {
	giftID, ok := uuidParam(ctx, "giftID")
	if !ok {
		return
	}

	var req request.GiftVenueLimitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	limit, err := h.svc.SetVenueLimit(ctx.Request.Context(), domain.GiftVenueLimit{
		GiftID:     giftID,
		VenueID:    req.VenueID,
		MaxWinners: req.MaxWinners,
	})
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleSetVenueLimit -> h.svc.SetVenueLimit", err))
		return
	}

	ctx.JSON(http.StatusOK, limit)
}

// HandleDeleteVenueLimit godoc
// @Summary      Remove the stock of a gift at a venue
// @Tags         admin
// @Param        giftID    path      string  true  "Gift ID"
// @Param        venueID   path      string  true  "Venue ID"
// @Success      204
// @Failure      404      {object}   response.Err
// @Router       /admin/gifts/{giftID}/venue-limits/{venueID} [delete]
// @Security     BearerAuth
func (h *GiftHandler) HandleDeleteVenueLimit(ctx *gin.Context) {
	giftID, ok := uuidParam(ctx, "giftID")
	if !ok {
		return
	}
	venueID, ok := uuidParam(ctx, "venueID")
	if !ok {
		return
	}

	if err := h.svc.RemoveVenueLimit(ctx.Request.Context(), giftID, venueID); err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleDeleteVenueLimit -> h.svc.RemoveVenueLimit", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleResetGift godoc
// @Summary      Reset the winners of a gift
// @Description  Won tickets of the gift lose their win and the counter goes back to 0.
// @Tags         admin
// @Produce      json
// @Param        giftID    path      string  true  "Gift ID"
// @Success      200      {object}   response.ResetResponse
// @Failure      404      {object}   response.Err
// @Router       /admin/gifts/{giftID}/reset [post]
// @Security     BearerAuth
func (h *GiftHandler) HandleResetGift(ctx *gin.Context) {
	giftID, ok := uuidParam(ctx, "giftID")
	if !ok {
		return
	}

	gifts, err := h.svc.ResetGift(ctx.Request.Context(), giftID)
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleResetGift -> h.svc.ResetGift", err))
		return
	}

	ctx.JSON(http.StatusOK, response.ResetResponse{Gifts: gifts})
}

// HandleResetCampaign godoc
// @Summary      Reset the winners of every gift of a campaign
// @Tags         admin
// @Produce      json
// @Param        campaignID  path    string  true  "Campaign ID"
// @Success      200      {object}   response.ResetResponse
// @Router       /admin/campaigns/{campaignID}/reset [post]
// @Security     BearerAuth
func (h *GiftHandler) HandleResetCampaign(ctx *gin.Context) {
	campaignID, ok := uuidParam(ctx, "campaignID")
	if !ok {
		return
	}

	gifts, err := h.svc.ResetCampaign(ctx.Request.Context(), campaignID)
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleResetCampaign -> h.svc.ResetCampaign", err))
		return
	}

	ctx.JSON(http.StatusOK, response.ResetResponse{Gifts: gifts})
}

// HandleResetAll godoc
// @Summary      Reset the winners of every gift
// @Tags         admin
// @Produce      json
// @Success      200      {object}   response.ResetResponse
// @Router       /admin/gifts/reset [post]
// @Security     BearerAuth
func (h *GiftHandler) HandleResetAll(ctx *gin.Context) {
	gifts, err := h.svc.ResetAll(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, adminErr("v1.HandleResetAll -> h.svc.ResetAll", err))
		return
	}

	ctx.JSON(http.StatusOK, response.ResetResponse{Gifts: gifts})
}

func giftInput(req request.GiftRequest) service.GiftInput {
	return service.GiftInput{
		Name:       req.Name,
		CampaignID: req.CampaignID,
		MaxWinners: req.MaxWinners,
		Emoji:      req.Emoji,
		Color:      req.Color,
	}
}

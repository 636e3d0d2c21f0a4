package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rouemaroc/spinwheel/internal/api/handler/v1/response"
	"github.com/rouemaroc/spinwheel/internal/service"
)

// Messages shown to participants. They never name the technical cause.
const (
	msgPeriodOver   = "La période de participation est terminée pour aujourd'hui."
	msgGiftGone     = "Dommage ! Ce cadeau est épuisé pour votre ville. Veuillez réessayer."
	msgAlreadySpun  = "Vous avez déjà tourné la roue avec ce ticket."
	msgTicketAbsent = "Ce ticket est introuvable."
	msgRetryLater   = "Le service est momentanément indisponible. Veuillez réessayer."
)

// spinErr maps an allocation outcome to the response a participant sees.
func spinErr(err error) *response.Err {
	kind := func(status int, code, text, message string) *response.Err {
		return &response.Err{
			Err:            err,
			HTTPStatusCode: status,
			StatusText:     text,
			AppCode:        code,
			ErrorText:      code,
			Message:        message,
		}
	}

	switch {
	case errors.Is(err, service.ErrAlreadySpun):
		return kind(http.StatusConflict, "already_spun", "Conflict", msgAlreadySpun)
	case errors.Is(err, service.ErrGlobalLimitReached):
		return kind(http.StatusConflict, "global_limit_reached", "Conflict", msgPeriodOver)
	case errors.Is(err, service.ErrVenueStockNotConfigured):
		return kind(http.StatusConflict, "venue_stock_not_configured", "Conflict", msgGiftGone)
	case errors.Is(err, service.ErrVenueStockExhausted):
		return kind(http.StatusConflict, "venue_stock_exhausted", "Conflict", msgGiftGone)
	case errors.Is(err, service.ErrNoLongerAvailable):
		return kind(http.StatusConflict, "no_longer_available", "Conflict", msgGiftGone)
	case errors.Is(err, service.ErrNotFound):
		return kind(http.StatusNotFound, "not_found", "Resource not found", msgTicketAbsent)
	case errors.Is(err, service.ErrStoreUnavailable):
		e := response.ErrServiceUnavailable(err)
		e.AppCode = "store_unavailable"
		e.Message = msgRetryLater
		return e
	default:
		return response.ErrInternalServerError(err)
	}
}

// adminErr maps errors of the administration services. op names the failing
// call for the logs.
func adminErr(op string, err error) *response.Err {
	switch {
	case errors.Is(err, service.ErrCampaignNotFound),
		errors.Is(err, service.ErrCityNotFound),
		errors.Is(err, service.ErrVenueNotFound),
		errors.Is(err, service.ErrGiftNotFound),
		errors.Is(err, service.ErrLimitNotFound),
		errors.Is(err, service.ErrParticipantNotFound),
		errors.Is(err, service.ErrAdminNotFound),
		errors.Is(err, service.ErrNotFound):
		return &response.Err{
			Err:            err,
			HTTPStatusCode: http.StatusNotFound,
			StatusText:     "Resource not found",
			ErrorText:      err.Error(),
		}
	case errors.Is(err, service.ErrCampaignSlugExists),
		errors.Is(err, service.ErrCityUsernameExists),
		errors.Is(err, service.ErrAdminUsernameExists),
		errors.Is(err, service.ErrParticipantCodeExists),
		errors.Is(err, service.ErrGiftHasWinners),
		errors.Is(err, service.ErrCeilingBelowWinners):
		return response.ErrConflict(err)
	case errors.Is(err, service.ErrStorageDisabled):
		return response.ErrServiceUnavailable(err)
	case errors.Is(err, service.ErrStoreUnavailable):
		return response.ErrServiceUnavailable(err)
	default:
		return response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err))
	}
}

func uuidParam(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid %s: %w", name, err)))
		return uuid.Nil, false
	}

	return id, true
}

// uuidQuery reads an optional id from the query string.
func uuidQuery(ctx *gin.Context, name string) (*uuid.UUID, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, true
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid %s: %w", name, err)))
		return nil, false
	}

	return &id, true
}

// HandleHealthcheck godoc
// @Summary      Healthcheck
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

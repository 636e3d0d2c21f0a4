package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeParticipation struct {
	registered []service.RegisterInput
	issue      domain.TicketIssue
	err        error
}

func (f *fakeParticipation) Register(_ context.Context, input service.RegisterInput) (domain.TicketIssue, error) {
	f.registered = append(f.registered, input)
	return f.issue, f.err
}

func (f *fakeParticipation) Replay(_ context.Context, _ uuid.UUID) (domain.TicketIssue, error) {
	return f.issue, f.err
}

func (f *fakeParticipation) GetSpin(_ context.Context, _ uuid.UUID) (domain.SpinView, error) {
	return domain.SpinView{}, f.err
}

func (f *fakeParticipation) ListParticipants(_ context.Context, _ domain.ParticipantQuery) ([]domain.Participant, error) {
	return nil, f.err
}

type fakeAllocation struct {
	err error
}

func (f fakeAllocation) FinalizeSpin(_ context.Context, participantID, giftID uuid.UUID) (domain.SpinResult, error) {
	if f.err != nil {
		return domain.SpinResult{}, f.err
	}

	return domain.SpinResult{
		Participant: domain.Participant{ID: participantID, Won: true, PrizeID: &giftID},
		Gift:        domain.Gift{ID: giftID, Name: "Mug"},
	}, nil
}

type fakeCampaigns map[string]domain.Campaign

func (f fakeCampaigns) GetCampaignBySlug(_ context.Context, slug string) (domain.Campaign, error) {
	c, ok := f[slug]
	if !ok {
		return domain.Campaign{}, service.ErrCampaignNotFound
	}

	return c, nil
}

func newParticipationRouter(h *ParticipationHandler) *gin.Engine {
	r := gin.New()
	r.POST("/campaigns/:slug/participations", h.HandleRegister)
	r.POST("/spins/:participantID/finalize", h.HandleFinalize)
	r.POST("/spins/:participantID/replay", h.HandleReplay)
	r.GET("/admin/participants", h.HandleListParticipants)

	return r
}

func doJSON(t *testing.T, r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	return serve(r, req)
}

func newRequest(method, target, authorization string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func TestHandleFinalize_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "already spun", err: service.ErrAlreadySpun, wantStatus: http.StatusConflict, wantCode: "already_spun"},
		{name: "global limit", err: service.ErrGlobalLimitReached, wantStatus: http.StatusConflict, wantCode: "global_limit_reached"},
		{
			name:       "venue exhausted behind no longer available",
			err:        fmt.Errorf("%w: %w", service.ErrNoLongerAvailable, service.ErrVenueStockExhausted),
			wantStatus: http.StatusConflict,
			wantCode:   "venue_stock_exhausted",
		},
		{
			name:       "venue not configured",
			err:        fmt.Errorf("%w: %w", service.ErrNoLongerAvailable, service.ErrVenueStockNotConfigured),
			wantStatus: http.StatusConflict,
			wantCode:   "venue_stock_not_configured",
		},
		{name: "no longer available", err: service.ErrNoLongerAvailable, wantStatus: http.StatusConflict, wantCode: "no_longer_available"},
		{name: "unknown ticket", err: service.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "store down", err: service.ErrStoreUnavailable, wantStatus: http.StatusServiceUnavailable, wantCode: "store_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewParticipationHandler(&fakeParticipation{}, fakeAllocation{err: tt.err}, fakeCampaigns{})
			target := fmt.Sprintf("/spins/%s/finalize", uuid.New())

			rec := doJSON(t, newParticipationRouter(h), http.MethodPost, target, gin.H{"gift_id": uuid.New()})

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeErr(t, rec)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestHandleFinalize(t *testing.T) {
	h := NewParticipationHandler(&fakeParticipation{}, fakeAllocation{}, fakeCampaigns{})
	r := newParticipationRouter(h)
	giftID := uuid.New()

	rec := doJSON(t, r, http.MethodPost, fmt.Sprintf("/spins/%s/finalize", uuid.New()), gin.H{"gift_id": giftID})
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.SpinResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Participant.Won)
	assert.Equal(t, giftID, result.Gift.ID)

	rec = doJSON(t, r, http.MethodPost, "/spins/not-a-uuid/finalize", gin.H{"gift_id": giftID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, fmt.Sprintf("/spins/%s/finalize", uuid.New()), gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRegister(t *testing.T) {
	open := domain.Campaign{ID: uuid.New(), Slug: "summer", IsActive: true}
	gated := domain.Campaign{ID: uuid.New(), Slug: "vip", IsActive: true, AccessUsername: "vip", AccessPasswordHash: "hash"}
	campaigns := fakeCampaigns{open.Slug: open, gated.Slug: gated}
	valid := gin.H{"name": "Sara", "code": "ab12", "agreed_to_terms": true}

	t.Run("issues a ticket", func(t *testing.T) {
		svc := &fakeParticipation{issue: domain.TicketIssue{Outcome: domain.Issued}}
		r := newParticipationRouter(NewParticipationHandler(svc, fakeAllocation{}, campaigns))

		rec := doJSON(t, r, http.MethodPost, "/campaigns/summer/participations", valid)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, svc.registered, 1)
		assert.Equal(t, open.ID, svc.registered[0].CampaignID)
		assert.Nil(t, svc.registered[0].CityID)
	})

	tests := []struct {
		name       string
		slug       string
		body       gin.H
		svcErr     error
		wantStatus int
	}{
		{name: "terms refused", slug: "summer", body: gin.H{"name": "Sara", "code": "ab12"}, wantStatus: http.StatusBadRequest},
		{name: "missing name", slug: "summer", body: gin.H{"code": "ab12", "agreed_to_terms": true}, wantStatus: http.StatusBadRequest},
		{name: "unknown campaign", slug: "winter", body: valid, wantStatus: http.StatusNotFound},
		{name: "gate not passed", slug: "vip", body: valid, wantStatus: http.StatusForbidden},
		{name: "inactive campaign", slug: "summer", body: valid, svcErr: service.ErrCampaignInactive, wantStatus: http.StatusForbidden},
		{name: "venue mismatch", slug: "summer", body: valid, svcErr: service.ErrVenueCityMismatch, wantStatus: http.StatusBadRequest},
		{name: "store down", slug: "summer", body: valid, svcErr: service.ErrStoreUnavailable, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeParticipation{err: tt.svcErr}
			r := newParticipationRouter(NewParticipationHandler(svc, fakeAllocation{}, campaigns))

			rec := doJSON(t, r, http.MethodPost, "/campaigns/"+tt.slug+"/participations", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleReplay_Status(t *testing.T) {
	svc := &fakeParticipation{issue: domain.TicketIssue{Outcome: domain.Reused}}
	r := newParticipationRouter(NewParticipationHandler(svc, fakeAllocation{}, fakeCampaigns{}))
	target := fmt.Sprintf("/spins/%s/replay", uuid.New())

	rec := doJSON(t, r, http.MethodPost, target, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	svc.issue.Outcome = domain.IssuedWithSuffix
	rec = doJSON(t, r, http.MethodPost, target, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandleListParticipants_Paging(t *testing.T) {
	r := newParticipationRouter(NewParticipationHandler(&fakeParticipation{}, fakeAllocation{}, fakeCampaigns{}))

	for target, want := range map[string]int{
		"/admin/participants":                   http.StatusOK,
		"/admin/participants?won=true&limit=10": http.StatusOK,
		"/admin/participants?limit=0":           http.StatusBadRequest,
		"/admin/participants?limit=501":         http.StatusBadRequest,
		"/admin/participants?offset=-1":         http.StatusBadRequest,
		"/admin/participants?won=maybe":         http.StatusBadRequest,
		"/admin/participants?campaign_id=nope":  http.StatusBadRequest,
	} {
		rec := doJSON(t, r, http.MethodGet, target, nil)
		assert.Equal(t, want, rec.Code, target)
	}
}

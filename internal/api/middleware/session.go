package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rouemaroc/spinwheel/internal/config"
	"github.com/rouemaroc/spinwheel/internal/pkg/jwthelper"
)

const (
	CtxKeyCityID           = "cityID"
	CtxKeyCampaignAccessID = "campaignAccessID"
)

// Sessions reads and writes the signed cookies of city staff and of visitors
// who passed a campaign gate.
type Sessions struct {
	conf       *config.SessionConfig
	signingKey []byte
}

func NewSessions(conf *config.SessionConfig) *Sessions {
	return &Sessions{
		conf:       conf,
		signingKey: []byte(conf.SigningKey),
	}
}

// Resolve puts the identities carried by valid cookies into the context.
// Missing or invalid cookies are ignored.
func (s *Sessions) Resolve() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if id, ok := s.read(ctx, s.conf.CityCookieName, jwthelper.ScopeCity); ok {
			ctx.Set(CtxKeyCityID, id)
		}
		if id, ok := s.read(ctx, s.conf.AccessCookieName, jwthelper.ScopeCampaign); ok {
			ctx.Set(CtxKeyCampaignAccessID, id)
		}

		ctx.Next()
	}
}

func (s *Sessions) SetCity(ctx *gin.Context, cityID uuid.UUID) error {
	return s.write(ctx, s.conf.CityCookieName, jwthelper.ScopeCity, cityID)
}

func (s *Sessions) ClearCity(ctx *gin.Context) {
	s.clear(ctx, s.conf.CityCookieName)
}

func (s *Sessions) SetCampaignAccess(ctx *gin.Context, campaignID uuid.UUID) error {
	return s.write(ctx, s.conf.AccessCookieName, jwthelper.ScopeCampaign, campaignID)
}

func (s *Sessions) read(ctx *gin.Context, name string, scope jwthelper.Scope) (uuid.UUID, bool) {
	value, err := ctx.Cookie(name)
	if err != nil || value == "" {
		return uuid.Nil, false
	}

	claims, err := jwthelper.ParseToken(s.signingKey, value, scope)
	if err != nil {
		return uuid.Nil, false
	}

	return claims.SubjectID, true
}

func (s *Sessions) write(ctx *gin.Context, name string, scope jwthelper.Scope, id uuid.UUID) error {
	token, err := jwthelper.GenerateToken(s.signingKey, scope, id, "", s.conf.TTL)
	if err != nil {
		return err
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(name, token, int(s.conf.TTL.Seconds()), "/", "", s.conf.Secure, true)

	return nil
}

func (s *Sessions) clear(ctx *gin.Context, name string) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(name, "", -1, "/", "", s.conf.Secure, true)
}

func CityID(ctx *gin.Context) (uuid.UUID, bool) {
	return uuidFromContext(ctx, CtxKeyCityID)
}

func CampaignAccessID(ctx *gin.Context) (uuid.UUID, bool) {
	return uuidFromContext(ctx, CtxKeyCampaignAccessID)
}

func uuidFromContext(ctx *gin.Context, key string) (uuid.UUID, bool) {
	v, ok := ctx.Get(key)
	if !ok {
		return uuid.Nil, false
	}

	id, ok := v.(uuid.UUID)

	return id, ok
}

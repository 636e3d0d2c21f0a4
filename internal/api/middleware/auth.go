package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rouemaroc/spinwheel/internal/api/handler/v1/response"
	"github.com/rouemaroc/spinwheel/internal/pkg/jwthelper"
)

const CtxKeyAdminID = "adminID"

var (
	errMissingToken  = errors.New("missing bearer token")
	errAgentMismatch = errors.New("token was issued to another client")
)

type Authenticator struct {
	signingKey []byte
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
	}
}

// VerifyJWT lets through requests carrying a valid admin bearer token.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, tokenString, jwthelper.ScopeAdmin)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}

		if claims.UserAgent != ctx.Request.UserAgent() {
			response.RenderErr(ctx, response.ErrUnauthorized(errAgentMismatch))
			return
		}

		ctx.Set(CtxKeyAdminID, claims.SubjectID)
		ctx.Next()
	}
}

func AdminID(ctx *gin.Context) (uuid.UUID, bool) {
	id, ok := ctx.Get(CtxKeyAdminID)
	if !ok {
		return uuid.Nil, false
	}

	adminID, ok := id.(uuid.UUID)

	return adminID, ok
}

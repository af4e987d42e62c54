package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coachmybody/server/models"
	"github.com/coachmybody/server/services"
	"github.com/coachmybody/server/utils"
)

// ContextUserKey is the key used to store the authenticated user in Gin context.
const ContextUserKey = "user"

// TokenResolver turns an access token into its user.
type TokenResolver interface {
	FindByToken(ctx context.Context, accessToken string) (*models.User, error)
}

// AuthRequired resolves the bearer token of the request to a user. Token expiry
// is not enforced here; see UserService.FindByToken.
func AuthRequired(resolver TokenResolver) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := BearerToken(ctx.GetHeader("Authorization"))
		if token == "" {
			abortWith(ctx, services.ErrInvalidAccessToken, "authorization header missing")
			return
		}

		user, err := resolver.FindByToken(ctx.Request.Context(), token)
		if err != nil {
			abortWith(ctx, err, err.Error())
			return
		}

		ctx.Set(ContextUserKey, user)
		ctx.Next()
	}
}

// BearerToken extracts the token from an Authorization header value. A bare
// token without the scheme is accepted as well.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	if len(parts) == 1 {
		return header
	}
	return ""
}

// CurrentUser returns the user stored by AuthRequired.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func abortWith(ctx *gin.Context, err error, message string) {
	p, known := services.Classify(err)
	if !known {
		if utils.Logger != nil {
			utils.Logger.Error("token lookup failed", zap.Error(err))
		}
		message = "internal error"
	}
	utils.Problem(ctx, p.Status, p.Code, p.Kind, message)
}

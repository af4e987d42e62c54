package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coachmybody/server/middleware"
	"github.com/coachmybody/server/models"
	"github.com/coachmybody/server/services"
	"github.com/coachmybody/server/utils"
)

// respondError writes the problem matching err. Errors without a known kind
// are logged and hidden behind a generic 500.
func respondError(ctx *gin.Context, err error) {
	p, known := services.Classify(err)
	message := err.Error()
	if !known {
		if utils.Logger != nil {
			utils.Logger.Error("request failed",
				zap.String("method", ctx.Request.Method),
				zap.String("route", ctx.FullPath()),
				zap.Error(err))
		}
		message = "internal error"
	}
	utils.Problem(ctx, p.Status, p.Code, p.Kind, message)
}

// badRequest reports a payload that failed to parse or validate.
func badRequest(ctx *gin.Context, message string) {
	utils.Problem(ctx, http.StatusBadRequest, 40000, "INVALID_REQUEST", message)
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 20
	if p, err := strconv.Atoi(strings.TrimSpace(pageStr)); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(strings.TrimSpace(sizeStr)); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// getUser returns the user resolved by middleware.AuthRequired.
func getUser(ctx *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Problem(ctx, http.StatusUnauthorized, 40100, "INVALID_ACCESS_TOKEN", "authentication required")
		return nil, false
	}
	return user, true
}

package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coachmybody/server/middleware"
	"github.com/coachmybody/server/services"
	"github.com/coachmybody/server/utils"
)

// UserController exposes registration, the token lifecycle and user listings.
type UserController struct {
	users    *services.UserService
	routines *services.RoutineService
}

func NewUserController(users *services.UserService, routines *services.RoutineService) *UserController {
	return &UserController{users: users, routines: routines}
}

type loginRequest struct {
	SocialID string `json:"social_id" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Register creates a user without issuing tokens.
func (u *UserController) Register(ctx *gin.Context) {
	var req services.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	user, err := u.users.Register(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "created", user)
}

// Login issues a token pair for a registered social id.
func (u *UserController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	pair, err := u.users.Login(ctx.Request.Context(), req.SocialID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, pair)
}

func (u *UserController) Refresh(ctx *gin.Context) {
	var req refreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	pair, err := u.users.Refresh(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, pair)
}

// TokenValidity reports whether the bearer token is known and unexpired.
func (u *UserController) TokenValidity(ctx *gin.Context) {
	token := middleware.BearerToken(ctx.GetHeader("Authorization"))
	valid := false
	if token != "" {
		var err error
		valid, err = u.users.IsValidToken(ctx.Request.Context(), token)
		if err != nil {
			respondError(ctx, err)
			return
		}
	}
	utils.Success(ctx, gin.H{"valid": valid})
}

func (u *UserController) ListUsers(ctx *gin.Context) {
	users, err := u.users.GetUsers(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, users)
}

// Me returns the stored profile of the caller.
func (u *UserController) Me(ctx *gin.Context) {
	caller, ok := getUser(ctx)
	if !ok {
		return
	}
	user, err := u.users.FindByID(ctx.Request.Context(), caller.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, user)
}

// MyRoutines lists the caller's routines, optionally only those with exercises.
func (u *UserController) MyRoutines(ctx *gin.Context) {
	user, ok := getUser(ctx)
	if !ok {
		return
	}
	hasExercise, _ := strconv.ParseBool(ctx.Query("hasExercise"))
	routines, err := u.routines.FindMyRoutines(ctx.Request.Context(), user.ID, hasExercise)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, routines)
}

func (u *UserController) MyBookmarks(ctx *gin.Context) {
	user, ok := getUser(ctx)
	if !ok {
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	result, err := u.routines.FindBookmarkRoutines(ctx.Request.Context(), user.ID, page, pageSize)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, result)
}

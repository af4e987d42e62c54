package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coachmybody/server/services"
	"github.com/coachmybody/server/utils"
)

// RoutineController maps routine endpoints onto the RoutineService.
type RoutineController struct {
	routines *services.RoutineService
}

func NewRoutineController(routines *services.RoutineService) *RoutineController {
	return &RoutineController{routines: routines}
}

type routineCreateRequest struct {
	Title string `json:"title" binding:"required,max=100"`
}

type routineIDsRequest struct {
	RoutineIDs []uint `json:"routineIds" binding:"required,min=1,dive,gt=0"`
}

type exerciseIDsRequest struct {
	ExerciseIDs []uint `json:"exerciseIds" binding:"required,min=1,dive,gt=0"`
}

type routineExerciseIDsRequest struct {
	RoutineExerciseIDs []uint `json:"routineExerciseIds" binding:"required,min=1,dive,gt=0"`
}

func (r *RoutineController) Create(ctx *gin.Context) {
	user, ok := getUser(ctx)
	if !ok {
		return
	}
	var req routineCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	if _, err := r.routines.Create(ctx.Request.Context(), user.ID, req.Title); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusCreated)
}

func (r *RoutineController) FindByID(ctx *gin.Context) {
	user, ok := getUser(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	detail, err := r.routines.FindRoutineByID(ctx.Request.Context(), id, user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, detail)
}

// Delete removes routines of the caller; foreign routines yield 406.
func (r *RoutineController) Delete(ctx *gin.Context) {
	user, ok := getUser(ctx)
	if !ok {
		return
	}
	var req routineIDsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	if err := r.routines.DeleteByIDs(ctx.Request.Context(), user.ID, req.RoutineIDs); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusOK)
}

func (r *RoutineController) AddExercises(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req exerciseIDsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	if err := r.routines.AddExercises(ctx.Request.Context(), id, req.ExerciseIDs); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusCreated)
}

func (r *RoutineController) UpdateTitle(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	title, present := ctx.GetQuery("newTitle")
	if !present {
		badRequest(ctx, "newTitle is required")
		return
	}
	if err := r.routines.UpdateTitle(ctx.Request.Context(), id, title); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusOK)
}

func (r *RoutineController) DeleteExercises(ctx *gin.Context) {
	var req routineExerciseIDsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	if err := r.routines.DeleteExercises(ctx.Request.Context(), req.RoutineExerciseIDs); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusOK)
}

func (r *RoutineController) UpdateExerciseOrder(ctx *gin.Context) {
	var req routineExerciseIDsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	if err := r.routines.UpdateRoutineExerciseOrder(ctx.Request.Context(), req.RoutineExerciseIDs); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusOK)
}

func (r *RoutineController) UpdateExercise(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req services.UpdateRoutineExerciseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	if err := r.routines.UpdateRoutineExercise(ctx.Request.Context(), id, req); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusOK)
}

// Bookmark toggles the caller's bookmark and returns the new state.
func (r *RoutineController) Bookmark(ctx *gin.Context) {
	user, ok := getUser(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	bookmarked, err := r.routines.Bookmark(ctx.Request.Context(), id, user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, bookmarked)
}

func (r *RoutineController) DeleteBookmark(ctx *gin.Context) {
	user, ok := getUser(ctx)
	if !ok {
		return
	}
	var req routineIDsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	if err := r.routines.DeleteBookmark(ctx.Request.Context(), user.ID, req.RoutineIDs); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusOK)
}

package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coachmybody/server/services"
	"github.com/coachmybody/server/utils"
)

type ExerciseController struct {
	exercises *services.ExerciseService
}

func NewExerciseController(exercises *services.ExerciseService) *ExerciseController {
	return &ExerciseController{exercises: exercises}
}

func (e *ExerciseController) List(ctx *gin.Context) {
	list, err := e.exercises.List(ctx.Request.Context(), strings.TrimSpace(ctx.Query("category")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, list)
}

func (e *ExerciseController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	exercise, err := e.exercises.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, exercise)
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coachmybody/server/services"
	"github.com/coachmybody/server/utils"
)

type RecordController struct {
	records *services.RecordService
}

func NewRecordController(records *services.RecordService) *RecordController {
	return &RecordController{records: records}
}

// Create logs a workout for the caller.
func (r *RecordController) Create(ctx *gin.Context) {
	user, ok := getUser(ctx)
	if !ok {
		return
	}
	var req services.CreateRecordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	if _, err := r.records.Create(ctx.Request.Context(), user.ID, req); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusCreated)
}

func (r *RecordController) MyRecords(ctx *gin.Context) {
	user, ok := getUser(ctx)
	if !ok {
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	result, err := r.records.FindMyRecords(ctx.Request.Context(), user.ID, page, pageSize)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, result)
}

package controller

import (
	"learnhub_backend/internal/middleware"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	Service *service.ProgressService
}

func NewProgressController(svc *service.ProgressService) *ProgressController {
	return &ProgressController{Service: svc}
}

type RecordProgressReq struct {
	ModuleID uint                 `json:"moduleId" binding:"required"`
	CourseID uint                 `json:"courseId" binding:"required"`
	Status   model.ProgressStatus `json:"status" binding:"required"`
}

// @Summary 上报模块学习进度
// @Description 状态只前进不回退：not-started < viewed < completed
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RecordProgressReq true "进度"
// @Success 200 {object} util.Response{data=model.ModuleProgress}
// @Router /api/progress [post]
func (c *ProgressController) RecordProgress(ctx *gin.Context) {
	user := middleware.CurrentIdentity(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req RecordProgressReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, err := c.Service.RecordProgress(ctx.Request.Context(), user.UserID, req.ModuleID, req.CourseID, req.Status)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 完成模块
// @Description 标记模块完成，课程全部完成时自动标记报名完成
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path int true "模块ID"
// @Success 200 {object} util.Response{data=service.ModuleCompletion}
// @Router /api/modules/{id}/complete [post]
func (c *ProgressController) CompleteModule(ctx *gin.Context) {
	user := middleware.CurrentIdentity(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	moduleID, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid module id")
		return
	}

	res, err := c.Service.CompleteModule(ctx.Request.Context(), user.UserID, moduleID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, res)
}

// @Summary 获取课程完成情况
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseProgress}
// @Router /api/courses/{id}/completion [get]
func (c *ProgressController) GetCompletion(ctx *gin.Context) {
	user := middleware.CurrentIdentity(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	progress, err := c.Service.CourseProgress(ctx.Request.Context(), user.UserID, courseID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 完成课程
// @Description 所有已发布模块完成后标记报名为已完成；重复调用不报错
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseCompletion}
// @Failure 409 {object} util.Response "课程尚未完成"
// @Router /api/courses/{id}/complete [post]
func (c *ProgressController) CompleteCourse(ctx *gin.Context) {
	user := middleware.CurrentIdentity(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	res, err := c.Service.FinishCourse(ctx.Request.Context(), user.UserID, courseID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, res)
}

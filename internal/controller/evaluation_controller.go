package controller

import (
	"learnhub_backend/internal/middleware"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EvaluationController struct {
	Service *service.AttemptService
}

func NewEvaluationController(svc *service.AttemptService) *EvaluationController {
	return &EvaluationController{Service: svc}
}

type SubmitAttemptReq struct {
	Answers   []model.AnswerSubmission `json:"answers"`
	TimeSpent int                      `json:"timeSpent"`
}

// @Summary 开始测验作答
// @Description 创建新的作答；已有进行中的作答时直接返回该作答
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 201 {object} util.Response{data=service.AttemptView}
// @Failure 403 {object} util.Response "作答次数已用完"
// @Failure 409 {object} util.Response "测验未启用"
// @Router /api/evaluations/{id}/attempts [post]
func (c *EvaluationController) StartAttempt(ctx *gin.Context) {
	user := middleware.CurrentIdentity(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	evaluationID, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid evaluation id")
		return
	}

	attempt, err := c.Service.Start(ctx.Request.Context(), evaluationID, user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, attempt)
}

// @Summary 获取作答题目
// @Description 返回不含正确答案的题目，开启乱序时每次请求顺序不同
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param attemptId path int true "作答ID"
// @Success 200 {object} util.Response{data=[]service.QuestionView}
// @Router /api/evaluations/{id}/attempts/{attemptId}/questions [get]
func (c *EvaluationController) GetQuestions(ctx *gin.Context) {
	user := middleware.CurrentIdentity(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	evaluationID, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid evaluation id")
		return
	}
	attemptID, ok := util.ParamUint(ctx, "attemptId")
	if !ok {
		util.BadRequest(ctx, "invalid attempt id")
		return
	}

	questions, err := c.Service.FetchQuestions(ctx.Request.Context(), evaluationID, user.UserID, attemptID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, questions)
}

// @Summary 提交作答
// @Tags 测验模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param attemptId path int true "作答ID"
// @Param body body SubmitAttemptReq true "答案"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Failure 409 {object} util.Response "作答已提交或不属于当前用户"
// @Router /api/evaluations/{id}/attempts/{attemptId}/submit [post]
func (c *EvaluationController) SubmitAttempt(ctx *gin.Context) {
	user := middleware.CurrentIdentity(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	evaluationID, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid evaluation id")
		return
	}
	attemptID, ok := util.ParamUint(ctx, "attemptId")
	if !ok {
		util.BadRequest(ctx, "invalid attempt id")
		return
	}

	var req SubmitAttemptReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.Submit(ctx.Request.Context(), evaluationID, user.UserID, attemptID, service.SubmitRequest{
		Answers:   req.Answers,
		TimeSpent: req.TimeSpent,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 获取作答结果
// @Description 测验开启显示答案时附带逐题解析
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param attemptId path int true "作答ID"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Router /api/evaluations/{id}/attempts/{attemptId}/result [get]
func (c *EvaluationController) GetResult(ctx *gin.Context) {
	user := middleware.CurrentIdentity(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	evaluationID, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid evaluation id")
		return
	}
	attemptID, ok := util.ParamUint(ctx, "attemptId")
	if !ok {
		util.BadRequest(ctx, "invalid attempt id")
		return
	}

	result, err := c.Service.GetResult(ctx.Request.Context(), evaluationID, user.UserID, attemptID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 获取我的作答记录
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=service.AttemptHistory}
// @Router /api/evaluations/{id}/attempts [get]
func (c *EvaluationController) ListAttempts(ctx *gin.Context) {
	user := middleware.CurrentIdentity(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	evaluationID, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid evaluation id")
		return
	}

	history, err := c.Service.ListAttempts(ctx.Request.Context(), evaluationID, user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, history)
}

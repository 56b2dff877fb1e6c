package controller

import (
	"learnhub_backend/internal/middleware"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	Service *service.CertificateService
}

func NewCertificateController(svc *service.CertificateService) *CertificateController {
	return &CertificateController{Service: svc}
}

type IssueCertificateReq struct {
	UserID         uint `json:"userId" binding:"required"`
	CourseID       uint `json:"courseId" binding:"required"`
	Score          *int `json:"score" binding:"required"`
	ExpirationDays int  `json:"expirationDays"`
}

// @Summary 获取我的证书
// @Tags 证书
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.CertificateView}
// @Router /api/certificates [get]
func (c *CertificateController) ListMine(ctx *gin.Context) {
	user := middleware.CurrentIdentity(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	certs, err := c.Service.ListForUser(ctx.Request.Context(), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, certs)
}

// @Summary 核验证书
// @Description 按证书编号公开查询，已撤销的证书返回 404
// @Tags 证书
// @Produce json
// @Param number path string true "证书编号"
// @Success 200 {object} util.Response{data=service.CertificateView}
// @Router /api/certificates/verify/{number} [get]
func (c *CertificateController) Verify(ctx *gin.Context) {
	cert, err := c.Service.Verify(ctx.Request.Context(), ctx.Param("number"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, cert)
}

// @Summary 签发证书
// @Tags 证书管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body IssueCertificateReq true "签发信息"
// @Success 201 {object} util.Response{data=service.CertificateView}
// @Failure 409 {object} util.Response "证书已存在"
// @Router /api/admin/certificates [post]
func (c *CertificateController) Issue(ctx *gin.Context) {
	user := middleware.CurrentIdentity(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req IssueCertificateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cert, err := c.Service.Issue(ctx.Request.Context(), service.IssueRequest{
		UserID:         req.UserID,
		CourseID:       req.CourseID,
		Score:          *req.Score,
		IssuedBy:       strconv.FormatUint(uint64(user.UserID), 10),
		ExpirationDays: req.ExpirationDays,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, cert)
}

// @Summary 证书列表
// @Tags 证书管理
// @Produce json
// @Security BearerAuth
// @Param userId query int false "用户ID"
// @Param courseId query int false "课程ID"
// @Param status query string false "有效状态" Enums(valid, expiring_soon, expired)
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/certificates [get]
func (c *CertificateController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	filter := repository.CertificateFilter{
		UserID:   util.QueryUint(ctx, "userId"),
		CourseID: util.QueryUint(ctx, "courseId"),
		Status:   model.ValidityStatus(ctx.Query("status")),
		Page:     page,
		Limit:    limit,
	}.Normalized()

	certs, total, err := c.Service.List(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  certs,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// @Summary 获取证书详情
// @Tags 证书管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "证书ID"
// @Success 200 {object} util.Response{data=service.CertificateView}
// @Router /api/admin/certificates/{id} [get]
func (c *CertificateController) Get(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid certificate id")
		return
	}

	cert, err := c.Service.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, cert)
}

// @Summary 撤销证书
// @Tags 证书管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "证书ID"
// @Success 200 {object} util.Response
// @Router /api/admin/certificates/{id} [delete]
func (c *CertificateController) Revoke(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid certificate id")
		return
	}

	if err := c.Service.Revoke(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"id": id, "revoked": true})
}

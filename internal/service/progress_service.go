package service

import (
	"context"
	"errors"
	"learnhub_backend/internal/event"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/monitoring"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// CompletionIssuer 课程完成后自动颁证
type CompletionIssuer interface {
	IssueForCompletion(ctx context.Context, userID, courseID uint) (*CertificateView, error)
}

type ProgressService struct {
	Catalog     *repository.CatalogRepository
	Progress    *repository.ProgressRepository
	Enrollments *repository.EnrollmentRepository
	Issuer      CompletionIssuer
	Events      event.Publisher
	Log         *zap.Logger
	Now         func() time.Time

	autoIssue atomic.Bool
}

func NewProgressService(
	catalog *repository.CatalogRepository,
	progress *repository.ProgressRepository,
	enrollments *repository.EnrollmentRepository,
	issuer CompletionIssuer,
	events event.Publisher,
	log *zap.Logger,
	autoIssue bool,
) *ProgressService {
	s := &ProgressService{
		Catalog:     catalog,
		Progress:    progress,
		Enrollments: enrollments,
		Issuer:      issuer,
		Events:      events,
		Log:         log,
		Now:         time.Now,
	}
	s.autoIssue.Store(autoIssue)
	return s
}

// SetAutoIssue 配置热更新
func (s *ProgressService) SetAutoIssue(enabled bool) {
	s.autoIssue.Store(enabled)
}

func (s *ProgressService) now() time.Time {
	return s.Now().UTC()
}

// RecordProgress 进度只前进不回退：completed 之后再上报 viewed 不会降级
func (s *ProgressService) RecordProgress(ctx context.Context, userID, moduleID, courseID uint, status model.ProgressStatus) (*model.ModuleProgress, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus.WithDetail("%q", status)
	}

	module, err := s.Catalog.FindModule(ctx, moduleID)
	if err != nil {
		return nil, notFoundOr(err, ErrModuleNotFound, "load module")
	}
	if module.CourseID != courseID {
		return nil, ErrModuleCourseMismatch.WithDetail("module %d, course %d", moduleID, courseID)
	}
	if status != model.ProgressNotStarted {
		if err := s.ensureUnlocked(ctx, userID, module); err != nil {
			return nil, err
		}
	}

	var p *model.ModuleProgress
	err = withRetry(ctx, func() error {
		var err error
		p, err = s.Progress.Advance(ctx, userID, moduleID, courseID, status, s.now())
		return storageError("record progress", err)
	})
	if err != nil {
		return nil, err
	}

	s.Log.Debug("progress recorded",
		zap.Uint("userId", userID),
		zap.Uint("moduleId", moduleID),
		zap.String("requested", string(status)),
		zap.String("status", string(p.Status)))
	return p, nil
}

// ensureUnlocked 已发布模块按顺序解锁：排在前面的已发布模块必须全部完成
func (s *ProgressService) ensureUnlocked(ctx context.Context, userID uint, module *model.CourseModule) error {
	if !module.IsPublished {
		return nil
	}
	modules, err := s.Catalog.ListPublishedModules(ctx, module.CourseID)
	if err != nil {
		return storageError("list modules", err)
	}
	records, err := s.Progress.ListByCourse(ctx, userID, module.CourseID)
	if err != nil {
		return storageError("list progress", err)
	}
	completed := make(map[uint]bool, len(records))
	for _, r := range records {
		completed[r.ModuleID] = r.Status == model.ProgressCompleted
	}

	for _, m := range modules {
		if m.ID == module.ID {
			return nil
		}
		if !completed[m.ID] {
			return ErrModuleLocked.WithDetail("module %d requires module %d", module.ID, m.ID)
		}
	}
	return nil
}

// IsCourseComplete 已发布模块全部完成才算完成；没有已发布模块的课程永远不算完成
func (s *ProgressService) IsCourseComplete(ctx context.Context, userID, courseID uint) (bool, error) {
	total, err := s.Catalog.CountPublishedModules(ctx, courseID)
	if err != nil {
		return false, storageError("count modules", err)
	}
	if total == 0 {
		return false, nil
	}
	completed, err := s.Progress.CountCompletedModules(ctx, userID, courseID)
	if err != nil {
		return false, storageError("count completed modules", err)
	}
	return completed == total, nil
}

// CompleteCourse 返回是否由本次调用完成状态迁移；已完成的报名返回 false 且不报错
func (s *ProgressService) CompleteCourse(ctx context.Context, userID, courseID uint) (bool, error) {
	now := s.now()
	var rows int64
	err := withRetry(ctx, func() error {
		var err error
		rows, err = s.Enrollments.MarkCompleted(ctx, userID, courseID, now)
		return storageError("complete course", err)
	})
	if err != nil {
		return false, err
	}

	if rows == 0 {
		if _, err := s.Enrollments.Find(ctx, userID, courseID); err != nil {
			return false, notFoundOr(err, ErrEnrollmentNotFound, "load enrollment")
		}
		return false, nil
	}

	monitoring.CoursesCompleted.Inc()
	s.Log.Info("course completed", zap.Uint("userId", userID), zap.Uint("courseId", courseID))
	payload := event.CourseCompletedPayload{UserID: userID, CourseID: courseID, CompletedAt: now}
	if err := s.Events.Publish(ctx, event.CourseCompleted, payload); err != nil {
		s.Log.Warn("publish course.completed failed", zap.Uint("userId", userID), zap.Uint("courseId", courseID), zap.Error(err))
	}
	return true, nil
}

type CourseCompletion struct {
	CourseID     uint             `json:"courseId"`
	Completed    bool             `json:"completed"`
	Transitioned bool             `json:"transitioned"`
	Certificate  *CertificateView `json:"certificate,omitempty"`
}

// FinishCourse 课程全部完成后标记报名完成，开启自动颁证时同时签发证书
func (s *ProgressService) FinishCourse(ctx context.Context, userID, courseID uint) (*CourseCompletion, error) {
	complete, err := s.IsCourseComplete(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, ErrCourseNotComplete
	}

	transitioned, err := s.CompleteCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	res := &CourseCompletion{CourseID: courseID, Completed: true, Transitioned: transitioned}

	if transitioned && s.autoIssue.Load() && s.Issuer != nil {
		cert, err := s.Issuer.IssueForCompletion(ctx, userID, courseID)
		switch {
		case err == nil:
			res.Certificate = cert
		case errors.Is(err, ErrDuplicateCertificate):
		default:
			// 报名状态已提交，颁证失败留给补发脚本处理
			s.Log.Error("auto issue certificate failed",
				zap.Uint("userId", userID), zap.Uint("courseId", courseID), zap.Error(err))
		}
	}
	return res, nil
}

type ModuleCompletion struct {
	Progress *model.ModuleProgress `json:"progress"`
	Course   *CourseCompletion     `json:"course,omitempty"`
}

// CompleteModule 标记模块完成，若因此整门课完成则继续走 FinishCourse
func (s *ProgressService) CompleteModule(ctx context.Context, userID, moduleID uint) (*ModuleCompletion, error) {
	module, err := s.Catalog.FindModule(ctx, moduleID)
	if err != nil {
		return nil, notFoundOr(err, ErrModuleNotFound, "load module")
	}

	p, err := s.RecordProgress(ctx, userID, moduleID, module.CourseID, model.ProgressCompleted)
	if err != nil {
		return nil, err
	}
	res := &ModuleCompletion{Progress: p}

	course, err := s.FinishCourse(ctx, userID, module.CourseID)
	switch {
	case err == nil:
		res.Course = course
	case errors.Is(err, ErrCourseNotComplete):
	case errors.Is(err, ErrEnrollmentNotFound):
		s.Log.Warn("course complete without enrollment", zap.Uint("userId", userID), zap.Uint("courseId", module.CourseID))
	default:
		return nil, err
	}
	return res, nil
}

type ModuleState struct {
	ModuleID uint                 `json:"moduleId"`
	Title    string               `json:"title"`
	Order    int                  `json:"order"`
	Status   model.ProgressStatus `json:"status"`
	Unlocked bool                 `json:"unlocked"`
}

type CourseProgress struct {
	CourseID         uint          `json:"courseId"`
	TotalModules     int           `json:"totalModules"`
	CompletedModules int           `json:"completedModules"`
	Percent          int           `json:"percent"`
	Completed        bool          `json:"completed"`
	Modules          []ModuleState `json:"modules"`
}

// CourseProgress 按模块顺序汇总进度；模块在前序模块全部完成后解锁
func (s *ProgressService) CourseProgress(ctx context.Context, userID, courseID uint) (*CourseProgress, error) {
	if _, err := s.Catalog.FindCourse(ctx, courseID); err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound, "load course")
	}
	modules, err := s.Catalog.ListPublishedModules(ctx, courseID)
	if err != nil {
		return nil, storageError("list modules", err)
	}
	records, err := s.Progress.ListByCourse(ctx, userID, courseID)
	if err != nil {
		return nil, storageError("list progress", err)
	}

	statusByModule := make(map[uint]model.ProgressStatus, len(records))
	for _, r := range records {
		statusByModule[r.ModuleID] = r.Status
	}

	cp := &CourseProgress{
		CourseID:     courseID,
		TotalModules: len(modules),
		Modules:      make([]ModuleState, len(modules)),
	}
	unlocked := true
	for i, m := range modules {
		st, ok := statusByModule[m.ID]
		if !ok {
			st = model.ProgressNotStarted
		}
		cp.Modules[i] = ModuleState{
			ModuleID: m.ID,
			Title:    m.Title,
			Order:    m.Order,
			Status:   st,
			Unlocked: unlocked,
		}
		if st == model.ProgressCompleted {
			cp.CompletedModules++
		} else {
			unlocked = false
		}
	}
	cp.Percent = PercentScore(cp.CompletedModules, cp.TotalModules)
	cp.Completed = cp.TotalModules > 0 && cp.CompletedModules == cp.TotalModules
	return cp, nil
}

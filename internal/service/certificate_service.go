package service

import (
	"context"
	"fmt"
	"learnhub_backend/internal/event"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/tracing"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const systemIssuer = "system"

type CertificateService struct {
	DB           *gorm.DB
	Users        *repository.UserRepository
	Catalog      *repository.CatalogRepository
	Certificates *repository.CertificateRepository
	Evaluations  *repository.EvaluationRepository
	Attempts     *repository.AttemptRepository
	Events       event.Publisher
	Log          *zap.Logger
	Now          func() time.Time

	defaultExpirationDays atomic.Int64
	newNumber             func(issuedAt time.Time) (string, error)
}

func NewCertificateService(
	db *gorm.DB,
	users *repository.UserRepository,
	catalog *repository.CatalogRepository,
	certificates *repository.CertificateRepository,
	evaluations *repository.EvaluationRepository,
	attempts *repository.AttemptRepository,
	events event.Publisher,
	log *zap.Logger,
	defaultExpirationDays int,
) *CertificateService {
	s := &CertificateService{
		DB:           db,
		Users:        users,
		Catalog:      catalog,
		Certificates: certificates,
		Evaluations:  evaluations,
		Attempts:     attempts,
		Events:       events,
		Log:          log,
		Now:          time.Now,
		newNumber:    NewCertificateNumber,
	}
	s.SetDefaultExpirationDays(defaultExpirationDays)
	return s
}

// SetDefaultExpirationDays 配置热更新；非正数忽略
func (s *CertificateService) SetDefaultExpirationDays(days int) {
	if days > 0 {
		s.defaultExpirationDays.Store(int64(days))
	}
}

func (s *CertificateService) DefaultExpirationDays() int {
	return int(s.defaultExpirationDays.Load())
}

func (s *CertificateService) now() time.Time {
	return s.Now().UTC()
}

// NewCertificateNumber CERT-<签发日期>-<UUIDv7 十六进制>，时间有序且全局唯一
func NewCertificateNumber(issuedAt time.Time) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	hex := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return fmt.Sprintf("CERT-%s-%s", issuedAt.UTC().Format("20060102"), hex), nil
}

// ValidityStatus 纯函数，不落库
func ValidityStatus(c *model.Certificate, now time.Time) model.ValidityStatus {
	return c.ValidityAt(now)
}

type CertificateView struct {
	model.Certificate
	Status model.ValidityStatus `json:"status"`
}

func (s *CertificateService) view(c *model.Certificate, now time.Time) *CertificateView {
	return &CertificateView{Certificate: *c, Status: c.ValidityAt(now)}
}

type IssueRequest struct {
	UserID         uint
	CourseID       uint
	Score          int
	IssuedBy       string
	ExpirationDays int
}

// Issue 唯一约束 (user_id, course_id) 保证并发签发只有一个成功，其余返回 ErrDuplicateCertificate
func (s *CertificateService) Issue(ctx context.Context, req IssueRequest) (*CertificateView, error) {
	ctx, span := tracing.StartSpan(ctx, "certificate.issue")
	defer span.End()

	if req.Score < 0 || req.Score > 100 {
		return nil, ErrInvalidScore.WithDetail("got %d", req.Score)
	}
	if req.ExpirationDays < 0 {
		return nil, ErrInvalidExpiration.WithDetail("got %d", req.ExpirationDays)
	}
	days := req.ExpirationDays
	if days == 0 {
		days = s.DefaultExpirationDays()
	}
	issuedBy := strings.TrimSpace(req.IssuedBy)
	if issuedBy == "" {
		issuedBy = systemIssuer
	}

	var cert *model.Certificate
	err := withRetry(ctx, func() error {
		txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if _, err := s.Users.WithTx(tx).FindByID(ctx, req.UserID); err != nil {
				return notFoundOr(err, ErrUserNotFound, "load user")
			}
			if _, err := s.Catalog.WithTx(tx).FindCourse(ctx, req.CourseID); err != nil {
				return notFoundOr(err, ErrCourseNotFound, "load course")
			}

			issuedAt := s.now()
			number, err := s.newNumber(issuedAt)
			if err != nil {
				return storageError("generate certificate number", err)
			}
			c := &model.Certificate{
				CertificateNumber: number,
				UserID:            req.UserID,
				CourseID:          req.CourseID,
				Score:             req.Score,
				IssuedBy:          issuedBy,
				IssuedAt:          issuedAt,
				ExpirationDate:    issuedAt.AddDate(0, 0, days),
			}
			if err := s.Certificates.WithTx(tx).Create(ctx, c); err != nil {
				if isDuplicate(err) {
					return ErrDuplicateCertificate
				}
				return storageError("create certificate", err)
			}
			cert = c
			return nil
		})
		return storageError("issue certificate", txErr)
	})
	if err != nil {
		return nil, err
	}

	source := "manual"
	if issuedBy == systemIssuer {
		source = "auto"
	}
	monitoring.CertificatesIssued.WithLabelValues(source).Inc()
	s.Log.Info("certificate issued",
		zap.Uint("certificateId", cert.ID),
		zap.String("number", cert.CertificateNumber),
		zap.Uint("userId", cert.UserID),
		zap.Uint("courseId", cert.CourseID),
		zap.String("issuedBy", issuedBy))

	payload := event.CertificatePayload{
		CertificateID:     cert.ID,
		CertificateNumber: cert.CertificateNumber,
		UserID:            cert.UserID,
		CourseID:          cert.CourseID,
		Score:             cert.Score,
		ExpirationDate:    cert.ExpirationDate,
	}
	if err := s.Events.Publish(ctx, event.CertificateIssued, payload); err != nil {
		s.Log.Warn("publish certificate.issued failed", zap.Uint("certificateId", cert.ID), zap.Error(err))
	}
	return s.view(cert, cert.IssuedAt), nil
}

// IssueForCompletion 自动颁证，分数取课程内各有效测验最高分的平均值；课程没有测验时记 100
func (s *CertificateService) IssueForCompletion(ctx context.Context, userID, courseID uint) (*CertificateView, error) {
	score, err := s.CourseScore(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	return s.Issue(ctx, IssueRequest{
		UserID:   userID,
		CourseID: courseID,
		Score:    score,
		IssuedBy: systemIssuer,
	})
}

// CourseScore 未作答的测验按 0 分计入
func (s *CertificateService) CourseScore(ctx context.Context, userID, courseID uint) (int, error) {
	evals, err := s.Evaluations.ListActiveByCourse(ctx, courseID)
	if err != nil {
		return 0, storageError("list evaluations", err)
	}
	if len(evals) == 0 {
		return 100, nil
	}

	ids := make([]uint, len(evals))
	for i, e := range evals {
		ids[i] = e.ID
	}
	best, err := s.Attempts.BestScores(ctx, userID, ids)
	if err != nil {
		return 0, storageError("load best scores", err)
	}

	sum := 0
	for _, b := range best {
		sum += b.BestScore
	}
	n := len(evals)
	return (sum*2 + n) / (2 * n), nil
}

// Revoke 软删除；撤销后的证书对查询不可见，但仍占用 (user, course) 唯一约束
func (s *CertificateService) Revoke(ctx context.Context, certificateID uint) error {
	cert, err := s.Certificates.FindByID(ctx, certificateID)
	if err != nil {
		return notFoundOr(err, ErrCertificateNotFound, "load certificate")
	}

	var rows int64
	err = withRetry(ctx, func() error {
		var err error
		rows, err = s.Certificates.SoftDelete(ctx, certificateID)
		return storageError("revoke certificate", err)
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCertificateNotFound
	}

	s.Log.Info("certificate revoked",
		zap.Uint("certificateId", certificateID),
		zap.String("number", cert.CertificateNumber))
	payload := event.CertificatePayload{
		CertificateID:     cert.ID,
		CertificateNumber: cert.CertificateNumber,
		UserID:            cert.UserID,
		CourseID:          cert.CourseID,
		ExpirationDate:    cert.ExpirationDate,
	}
	if err := s.Events.Publish(ctx, event.CertificateRevoked, payload); err != nil {
		s.Log.Warn("publish certificate.revoked failed", zap.Uint("certificateId", certificateID), zap.Error(err))
	}
	return nil
}

// Verify 按证书编号公开核验
func (s *CertificateService) Verify(ctx context.Context, number string) (*CertificateView, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrCertificateNotFound
	}
	cert, err := s.Certificates.FindByNumber(ctx, number)
	if err != nil {
		return nil, notFoundOr(err, ErrCertificateNotFound, "load certificate")
	}
	return s.view(cert, s.now()), nil
}

func (s *CertificateService) Get(ctx context.Context, certificateID uint) (*CertificateView, error) {
	cert, err := s.Certificates.FindByID(ctx, certificateID)
	if err != nil {
		return nil, notFoundOr(err, ErrCertificateNotFound, "load certificate")
	}
	return s.view(cert, s.now()), nil
}

func (s *CertificateService) ListForUser(ctx context.Context, userID uint) ([]CertificateView, error) {
	certs, err := s.Certificates.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageError("list certificates", err)
	}
	return s.views(certs), nil
}

func (s *CertificateService) List(ctx context.Context, filter repository.CertificateFilter) ([]CertificateView, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, ErrInvalidFilter.WithDetail("unknown status %q", filter.Status)
	}
	certs, total, err := s.Certificates.List(ctx, filter, s.now())
	if err != nil {
		return nil, 0, storageError("list certificates", err)
	}
	return s.views(certs), total, nil
}

func (s *CertificateService) views(certs []model.Certificate) []CertificateView {
	now := s.now()
	out := make([]CertificateView, len(certs))
	for i := range certs {
		out[i] = *s.view(&certs[i], now)
	}
	return out
}

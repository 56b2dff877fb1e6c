package service

import (
	"context"
	"learnhub_backend/internal/event"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/database"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	retryBackoff = time.Millisecond
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	events *event.Recorder
	now    time.Time

	users        *repository.UserRepository
	catalog      *repository.CatalogRepository
	enrollments  *repository.EnrollmentRepository
	evaluations  *repository.EvaluationRepository
	attemptRepo  *repository.AttemptRepository
	progressRepo *repository.ProgressRepository
	certRepo     *repository.CertificateRepository

	attempts *AttemptService
	progress *ProgressService
	certs    *CertificateService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// 内存库按连接隔离，单连接保证所有 goroutine 看到同一个库。
	// 代价是并发用例里的语句被连接池串行执行，行锁与唯一索引不会真正发生竞争；
	// 唯一索引本身由 storage_guard_test.go 直接写入重复行来覆盖
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		db:     db,
		events: &event.Recorder{},
		now:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	log := zap.NewNop()

	f.users = repository.NewUserRepository(db)
	f.catalog = repository.NewCatalogRepository(db)
	f.enrollments = repository.NewEnrollmentRepository(db)
	f.evaluations = repository.NewEvaluationRepository(db, nil)
	f.attemptRepo = repository.NewAttemptRepository(db)
	f.progressRepo = repository.NewProgressRepository(db)
	f.certRepo = repository.NewCertificateRepository(db)

	f.certs = NewCertificateService(db, f.users, f.catalog, f.certRepo, f.evaluations, f.attemptRepo, f.events, log, 365)
	f.certs.Now = clock
	f.progress = NewProgressService(f.catalog, f.progressRepo, f.enrollments, f.certs, f.events, log, false)
	f.progress.Now = clock
	f.attempts = NewAttemptService(db, f.evaluations, f.attemptRepo, f.events, log)
	f.attempts.Now = clock
	f.attempts.Modules = f.progress
	return f
}

func (f *fixture) user(name string) *model.User {
	f.t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com", Role: model.Student}
	if err := f.users.Create(f.ctx, u); err != nil {
		f.t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) course(title string) *model.Course {
	f.t.Helper()
	c := &model.Course{Title: title, IsPublished: true}
	if err := f.catalog.CreateCourse(f.ctx, c); err != nil {
		f.t.Fatalf("create course: %v", err)
	}
	return c
}

func (f *fixture) module(courseID uint, order int, published bool) *model.CourseModule {
	f.t.Helper()
	m := &model.CourseModule{CourseID: courseID, Title: "module", Order: order, IsPublished: published}
	if err := f.catalog.CreateModule(f.ctx, m); err != nil {
		f.t.Fatalf("create module: %v", err)
	}
	return m
}

func (f *fixture) enroll(userID, courseID uint) {
	f.t.Helper()
	e := &model.Enrollment{UserID: userID, CourseID: courseID, Status: model.EnrollmentEnrolled, EnrolledAt: f.now}
	if err := f.enrollments.Create(f.ctx, e); err != nil {
		f.t.Fatalf("enroll: %v", err)
	}
}

// evaluation 每题两个选项，第一个正确；multi 为 true 的题目两个选项都正确
func (f *fixture) evaluation(courseID uint, passing, maxAttempts, questions int, mutate func(e *model.Evaluation)) (*model.Evaluation, []model.Question) {
	f.t.Helper()
	e := &model.Evaluation{
		CourseID:     courseID,
		Title:        "quiz",
		PassingScore: passing,
		MaxAttempts:  maxAttempts,
		IsActive:     true,
	}
	if mutate != nil {
		mutate(e)
	}
	qs := make([]model.Question, questions)
	for i := range qs {
		qs[i] = model.Question{
			Text:        "question",
			Type:        model.SingleChoice,
			Points:      1,
			Order:       i + 1,
			Explanation: "because",
			Options: []model.Option{
				{Text: "right", IsCorrect: true, Order: 1},
				{Text: "wrong", Order: 2},
			},
		}
	}
	if err := f.evaluations.Create(f.ctx, e, qs); err != nil {
		f.t.Fatalf("create evaluation: %v", err)
	}
	loaded, err := f.evaluations.ListQuestions(f.ctx, e.ID)
	if err != nil {
		f.t.Fatalf("list questions: %v", err)
	}
	return e, loaded
}

// answers 前 correct 道题选正确项，其余选错误项
func answers(qs []model.Question, correct int) []model.AnswerSubmission {
	out := make([]model.AnswerSubmission, len(qs))
	for i, q := range qs {
		pick := q.Options[1].ID
		if i < correct {
			pick = q.Options[0].ID
		}
		out[i] = model.AnswerSubmission{QuestionID: q.ID, SelectedOptionIDs: []uint{pick}}
	}
	return out
}

func (f *fixture) startAndSubmit(evaluationID, userID uint, qs []model.Question, correct int) *SubmitResult {
	f.t.Helper()
	a, err := f.attempts.Start(f.ctx, evaluationID, userID)
	if err != nil {
		f.t.Fatalf("start: %v", err)
	}
	res, err := f.attempts.Submit(f.ctx, evaluationID, userID, a.ID, SubmitRequest{Answers: answers(qs, correct), TimeSpent: 60})
	if err != nil {
		f.t.Fatalf("submit: %v", err)
	}
	return res
}

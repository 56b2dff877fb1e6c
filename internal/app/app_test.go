package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/event"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/database"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	events *event.Recorder
	repos  *repositories
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		JWT:         config.JWTConfig{Secret: testSecret},
		Certificate: config.CertificateConfig{DefaultExpirationDays: 365, AutoIssue: true},
		Evaluation:  config.EvaluationConfig{CompleteModuleOnPass: true},
	}
	events := &event.Recorder{}
	a := &App{Config: cfg, DB: db, Log: zap.NewNop(), events: events}

	repos := a.initRepositories(db, nil, cfg)
	services := a.initServices(repos, cfg, db)
	controllers := a.initControllers(services, db, nil)

	router := gin.New()
	a.registerRoutes(router, controllers, services)

	return &testServer{t: t, router: router, db: db, events: events, repos: repos}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("%s %s: decode response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

func (s *testServer) user(name string, role model.UserRole, disabled bool) (*model.User, string) {
	s.t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com", Role: role, Disabled: disabled}
	if err := s.repos.user.Create(context.Background(), u); err != nil {
		s.t.Fatalf("create user: %v", err)
	}
	token, err := util.GenerateJWT(u, testSecret, time.Hour)
	if err != nil {
		s.t.Fatalf("token: %v", err)
	}
	return u, token
}

type catalog struct {
	course    *model.Course
	module    *model.CourseModule
	eval      *model.Evaluation
	questions []model.Question
}

func (s *testServer) seedCourse(studentID uint) catalog {
	s.t.Helper()
	ctx := context.Background()
	c := &model.Course{Title: "Go 101", IsPublished: true}
	if err := s.repos.catalog.CreateCourse(ctx, c); err != nil {
		s.t.Fatalf("course: %v", err)
	}
	m := &model.CourseModule{CourseID: c.ID, Title: "Basics", Order: 1, IsPublished: true}
	if err := s.repos.catalog.CreateModule(ctx, m); err != nil {
		s.t.Fatalf("module: %v", err)
	}
	if err := s.repos.enrollment.Create(ctx, &model.Enrollment{UserID: studentID, CourseID: c.ID, Status: model.EnrollmentEnrolled, EnrolledAt: time.Now().UTC()}); err != nil {
		s.t.Fatalf("enroll: %v", err)
	}

	e := &model.Evaluation{CourseID: c.ID, ModuleID: &m.ID, Title: "Quiz", PassingScore: 50, MaxAttempts: 1, IsActive: true}
	qs := []model.Question{
		{Text: "q1", Type: model.SingleChoice, Order: 1, Options: []model.Option{{Text: "a", IsCorrect: true, Order: 1}, {Text: "b", Order: 2}}},
		{Text: "q2", Type: model.MultipleChoice, Order: 2, Options: []model.Option{{Text: "c", IsCorrect: true, Order: 1}, {Text: "d", IsCorrect: true, Order: 2}, {Text: "e", Order: 3}}},
	}
	if err := s.repos.evaluation.Create(ctx, e, qs); err != nil {
		s.t.Fatalf("evaluation: %v", err)
	}
	loaded, err := s.repos.evaluation.ListQuestions(ctx, e.ID)
	if err != nil {
		s.t.Fatalf("questions: %v", err)
	}
	return catalog{course: c, module: m, eval: e, questions: loaded}
}

func TestEvaluationFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	student, token := s.user("alice", model.Student, false)
	cat := s.seedCourse(student.ID)
	base := fmt.Sprintf("/api/evaluations/%d/attempts", cat.eval.ID)

	code, env := s.do(http.MethodPost, base, token, nil)
	if code != http.StatusCreated {
		t.Fatalf("start: %d %+v", code, env)
	}
	var attempt struct {
		ID            uint `json:"id"`
		AttemptNumber int  `json:"attemptNumber"`
	}
	json.Unmarshal(env.Data, &attempt)
	if attempt.AttemptNumber != 1 {
		t.Fatalf("unexpected attempt %+v", attempt)
	}

	code, env = s.do(http.MethodGet, fmt.Sprintf("%s/%d/questions", base, attempt.ID), token, nil)
	if code != http.StatusOK {
		t.Fatalf("questions: %d %+v", code, env)
	}
	if strings.Contains(strings.ToLower(string(env.Data)), "correct") {
		t.Fatalf("questions leak correctness: %s", env.Data)
	}

	answers := []model.AnswerSubmission{
		{QuestionID: cat.questions[0].ID, SelectedOptionIDs: []uint{cat.questions[0].Options[0].ID}},
		{QuestionID: cat.questions[1].ID, SelectedOptionIDs: []uint{cat.questions[1].Options[1].ID, cat.questions[1].Options[0].ID}},
	}
	code, env = s.do(http.MethodPost, fmt.Sprintf("%s/%d/submit", base, attempt.ID), token, gin.H{"answers": answers, "timeSpent": 120})
	if code != http.StatusOK {
		t.Fatalf("submit: %d %+v", code, env)
	}
	var result struct {
		Score            int  `json:"score"`
		Passed           bool `json:"passed"`
		ModuleCompletion struct {
			Course struct {
				Transitioned bool `json:"transitioned"`
				Certificate  struct {
					CertificateNumber string `json:"certificateNumber"`
					Status            string `json:"status"`
				} `json:"certificate"`
			} `json:"course"`
		} `json:"moduleCompletion"`
	}
	json.Unmarshal(env.Data, &result)
	if result.Score != 100 || !result.Passed {
		t.Fatalf("unexpected result %s", env.Data)
	}
	number := result.ModuleCompletion.Course.Certificate.CertificateNumber
	if !result.ModuleCompletion.Course.Transitioned || number == "" {
		t.Fatalf("passing the module quiz should complete the course and issue a certificate: %s", env.Data)
	}

	code, env = s.do(http.MethodPost, fmt.Sprintf("%s/%d/submit", base, attempt.ID), token, gin.H{"answers": answers})
	if code != http.StatusConflict || env.Error != "invalid_attempt" {
		t.Errorf("double submit: %d %+v", code, env)
	}

	code, env = s.do(http.MethodPost, base, token, nil)
	if code != http.StatusForbidden || env.Error != "attempts_exhausted" {
		t.Errorf("start after limit: %d %+v", code, env)
	}

	code, env = s.do(http.MethodGet, fmt.Sprintf("%s/%d/result", base, attempt.ID), token, nil)
	if code != http.StatusOK {
		t.Errorf("result: %d %+v", code, env)
	}

	code, env = s.do(http.MethodGet, "/api/certificates", token, nil)
	var mine []struct {
		CertificateNumber string `json:"certificateNumber"`
	}
	json.Unmarshal(env.Data, &mine)
	if code != http.StatusOK || len(mine) != 1 || mine[0].CertificateNumber != number {
		t.Errorf("my certificates: %d %s", code, env.Data)
	}

	code, env = s.do(http.MethodGet, "/api/certificates/verify/"+number, "", nil)
	if code != http.StatusOK {
		t.Errorf("public verify: %d %+v", code, env)
	}

	code, env = s.do(http.MethodGet, fmt.Sprintf("/api/courses/%d/completion", cat.course.ID), token, nil)
	var progress struct {
		Completed bool `json:"completed"`
		Percent   int  `json:"percent"`
	}
	json.Unmarshal(env.Data, &progress)
	if code != http.StatusOK || !progress.Completed || progress.Percent != 100 {
		t.Errorf("completion: %d %s", code, env.Data)
	}
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)
	_, student := s.user("bob", model.Student, false)
	_, disabled := s.user("carl", model.Student, true)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{name: "missing token", method: http.MethodGet, path: "/api/certificates", want: http.StatusUnauthorized},
		{name: "invalid token", method: http.MethodGet, path: "/api/certificates", token: "garbage", want: http.StatusUnauthorized},
		{name: "disabled account", method: http.MethodGet, path: "/api/certificates", token: disabled, want: http.StatusForbidden},
		{name: "student on admin route", method: http.MethodGet, path: "/api/admin/certificates", token: student, want: http.StatusForbidden},
		{name: "public health", method: http.MethodGet, path: "/api/health", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(tt.method, tt.path, tt.token, nil)
			if code != tt.want {
				t.Errorf("status %d, want %d (%+v)", code, tt.want, env)
			}
		})
	}
}

func TestAdminCertificates(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.user("root", model.Admin, false)
	student, _ := s.user("dora", model.Student, false)
	cat := s.seedCourse(student.ID)

	issue := gin.H{"userId": student.ID, "courseId": cat.course.ID, "score": 91, "expirationDays": 10}
	code, env := s.do(http.MethodPost, "/api/admin/certificates", admin, issue)
	if code != http.StatusCreated {
		t.Fatalf("issue: %d %+v", code, env)
	}
	var cert struct {
		ID                uint   `json:"id"`
		CertificateNumber string `json:"certificateNumber"`
		Status            string `json:"status"`
		IssuedBy          string `json:"issuedBy"`
	}
	json.Unmarshal(env.Data, &cert)
	if cert.Status != string(model.CertificateExpiringSoon) || cert.IssuedBy == "" {
		t.Errorf("unexpected certificate %s", env.Data)
	}

	code, env = s.do(http.MethodPost, "/api/admin/certificates", admin, issue)
	if code != http.StatusConflict || env.Error != "duplicate_certificate" {
		t.Errorf("duplicate: %d %+v", code, env)
	}

	code, env = s.do(http.MethodPost, "/api/admin/certificates", admin, gin.H{"userId": student.ID, "courseId": cat.course.ID, "score": 120})
	if code != http.StatusBadRequest || env.Error != "invalid_score" {
		t.Errorf("invalid score: %d %+v", code, env)
	}

	code, env = s.do(http.MethodPost, "/api/admin/certificates", admin, gin.H{"userId": 9999, "courseId": cat.course.ID, "score": 50})
	if code != http.StatusNotFound || env.Error != "user_not_found" {
		t.Errorf("missing user: %d %+v", code, env)
	}

	code, env = s.do(http.MethodGet, "/api/admin/certificates?status=expiring_soon", admin, nil)
	var page struct {
		Total int64 `json:"total"`
	}
	json.Unmarshal(env.Data, &page)
	if code != http.StatusOK || page.Total != 1 {
		t.Errorf("list expiring: %d %s", code, env.Data)
	}

	code, env = s.do(http.MethodGet, "/api/admin/certificates?page=0&limit=500", admin, nil)
	var clamped struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
	}
	json.Unmarshal(env.Data, &clamped)
	if code != http.StatusOK || clamped.Page != 1 || clamped.Limit != 100 {
		t.Errorf("paging should echo the applied values, got %d %s", code, env.Data)
	}

	code, env = s.do(http.MethodGet, "/api/admin/certificates?status=bogus", admin, nil)
	if code != http.StatusBadRequest {
		t.Errorf("bad filter: %d %+v", code, env)
	}

	code, env = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/certificates/%d", cert.ID), admin, nil)
	if code != http.StatusOK {
		t.Fatalf("revoke: %d %+v", code, env)
	}
	code, _ = s.do(http.MethodGet, "/api/certificates/verify/"+cert.CertificateNumber, "", nil)
	if code != http.StatusNotFound {
		t.Errorf("revoked certificate verify: %d", code)
	}
	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/certificates/%d", cert.ID), admin, nil)
	if code != http.StatusNotFound {
		t.Errorf("second revoke: %d", code)
	}
}

func TestProgressEndpoints(t *testing.T) {
	s := newTestServer(t)
	student, token := s.user("emma", model.Student, false)
	cat := s.seedCourse(student.ID)

	code, env := s.do(http.MethodPost, "/api/progress", token, gin.H{"moduleId": cat.module.ID, "courseId": cat.course.ID, "status": "finished"})
	if code != http.StatusBadRequest || env.Error != "invalid_status" {
		t.Errorf("invalid status: %d %+v", code, env)
	}

	code, env = s.do(http.MethodPost, fmt.Sprintf("/api/courses/%d/complete", cat.course.ID), token, nil)
	if code != http.StatusConflict || env.Error != "course_not_complete" {
		t.Errorf("premature complete: %d %+v", code, env)
	}

	code, env = s.do(http.MethodPost, "/api/progress", token, gin.H{"moduleId": cat.module.ID, "courseId": cat.course.ID, "status": "completed"})
	if code != http.StatusOK {
		t.Fatalf("record: %d %+v", code, env)
	}
	code, env = s.do(http.MethodPost, "/api/progress", token, gin.H{"moduleId": cat.module.ID, "courseId": cat.course.ID, "status": "viewed"})
	var p struct {
		Status string `json:"status"`
	}
	json.Unmarshal(env.Data, &p)
	if code != http.StatusOK || p.Status != string(model.ProgressCompleted) {
		t.Errorf("viewed after completed must not regress: %d %s", code, env.Data)
	}

	code, env = s.do(http.MethodPost, fmt.Sprintf("/api/courses/%d/complete", cat.course.ID), token, nil)
	var done struct {
		Transitioned bool `json:"transitioned"`
	}
	json.Unmarshal(env.Data, &done)
	if code != http.StatusOK || !done.Transitioned {
		t.Errorf("complete: %d %s", code, env.Data)
	}

	code, env = s.do(http.MethodPost, fmt.Sprintf("/api/courses/%d/complete", cat.course.ID), token, nil)
	json.Unmarshal(env.Data, &done)
	if code != http.StatusOK || done.Transitioned {
		t.Errorf("repeat complete: %d %s", code, env.Data)
	}

	var issued int64
	s.db.Model(&model.Certificate{}).Where("user_id = ?", student.ID).Count(&issued)
	if issued != 1 {
		t.Errorf("auto issue expected one certificate, got %d", issued)
	}

	found := false
	for _, typ := range s.events.Types() {
		if typ == event.CourseCompleted {
			found = true
		}
	}
	if !found {
		t.Error("course.completed event not published")
	}
}

func TestConfigCallbacksApplyReload(t *testing.T) {
	s := newTestServer(t)
	a := &App{Log: zap.NewNop(), events: s.events}
	cfg := &config.Config{Certificate: config.CertificateConfig{DefaultExpirationDays: 365}}
	svc := a.initServices(s.repos, cfg, s.db)

	a.applyConfig(&config.Config{Certificate: config.CertificateConfig{DefaultExpirationDays: 30}})
	if got := svc.certificate.DefaultExpirationDays(); got != 30 {
		t.Errorf("reload not applied, expiration days = %d", got)
	}

	a.applyConfig(&config.Config{Certificate: config.CertificateConfig{DefaultExpirationDays: 0}})
	if got := svc.certificate.DefaultExpirationDays(); got != 30 {
		t.Errorf("non-positive reload must be ignored, got %d", got)
	}
}

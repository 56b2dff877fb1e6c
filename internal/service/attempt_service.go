package service

import (
	"context"
	"encoding/json"
	"errors"
	"learnhub_backend/internal/event"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/tracing"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttemptService 测验作答状态机：NotStarted -> InProgress -> Completed
type AttemptService struct {
	DB          *gorm.DB
	Evaluations *repository.EvaluationRepository
	Attempts    *repository.AttemptRepository
	Events      event.Publisher
	Log         *zap.Logger
	Now         func() time.Time

	// Modules 非空且开启 completeModuleOnPass 时，通过与模块绑定的测验会同时完成该模块
	Modules              ModuleCompleter
	completeModuleOnPass atomic.Bool

	shuffle func(n int, swap func(i, j int))
}

type ModuleCompleter interface {
	CompleteModule(ctx context.Context, userID, moduleID uint) (*ModuleCompletion, error)
}

// SetCompleteModuleOnPass 配置热更新
func (s *AttemptService) SetCompleteModuleOnPass(enabled bool) {
	s.completeModuleOnPass.Store(enabled)
}

func NewAttemptService(
	db *gorm.DB,
	evaluations *repository.EvaluationRepository,
	attempts *repository.AttemptRepository,
	events event.Publisher,
	log *zap.Logger,
) *AttemptService {
	return &AttemptService{
		DB:          db,
		Evaluations: evaluations,
		Attempts:    attempts,
		Events:      events,
		Log:         log,
		Now:         time.Now,
		shuffle:     rand.Shuffle,
	}
}

type AttemptView struct {
	ID               uint                `json:"id"`
	EvaluationID     uint                `json:"evaluationId"`
	AttemptNumber    int                 `json:"attemptNumber"`
	Status           model.AttemptStatus `json:"status"`
	StartedAt        time.Time           `json:"startedAt"`
	TimeLimit        int                 `json:"timeLimit"`
	Deadline         *time.Time          `json:"deadline,omitempty"`
	RemainingSeconds *int                `json:"remainingSeconds,omitempty"`
}

// QuestionView 作答中下发的题目，不含正确答案与解析
type QuestionView struct {
	ID      uint               `json:"id"`
	Text    string             `json:"text"`
	Type    model.QuestionType `json:"type"`
	Points  int                `json:"points"`
	Order   int                `json:"order"`
	Options []OptionView       `json:"options"`
}

type OptionView struct {
	ID    uint   `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

type SubmitRequest struct {
	Answers   []model.AnswerSubmission `json:"answers"`
	TimeSpent int                      `json:"timeSpent"`
}

type SubmitResult struct {
	AttemptID      uint `json:"attemptId"`
	AttemptNumber  int  `json:"attemptNumber"`
	Score          int  `json:"score"`
	CorrectAnswers int  `json:"correctAnswers"`
	TotalQuestions int  `json:"totalQuestions"`
	Passed         bool `json:"passed"`

	ModuleCompletion *ModuleCompletion `json:"moduleCompletion,omitempty"`
}

func (s *AttemptService) now() time.Time {
	return s.Now().UTC()
}

func (s *AttemptService) loadEvaluation(ctx context.Context, evaluationID uint) (*model.Evaluation, error) {
	eval, err := s.Evaluations.FindByID(ctx, evaluationID)
	if err != nil {
		return nil, notFoundOr(err, ErrEvaluationNotFound, "load evaluation")
	}
	return eval, nil
}

// loadOwnedAttempt 不存在、不属于该用户或该测验的作答一律视为 InvalidAttempt
func (s *AttemptService) loadOwnedAttempt(ctx context.Context, evaluationID, userID, attemptID uint) (*model.Attempt, error) {
	attempt, err := s.Attempts.FindByID(ctx, attemptID)
	if err != nil {
		return nil, notFoundOr(err, ErrInvalidAttempt, "load attempt")
	}
	if attempt.UserID != userID || attempt.EvaluationID != evaluationID {
		return nil, ErrInvalidAttempt
	}
	return attempt, nil
}

func (s *AttemptService) view(a *model.Attempt, eval *model.Evaluation) *AttemptView {
	v := &AttemptView{
		ID:            a.ID,
		EvaluationID:  a.EvaluationID,
		AttemptNumber: a.AttemptNumber,
		Status:        a.Status,
		StartedAt:     a.StartedAt,
		TimeLimit:     eval.TimeLimit,
	}
	if eval.TimeLimit > 0 {
		deadline := a.StartedAt.Add(time.Duration(eval.TimeLimit) * time.Minute)
		remaining := int(deadline.Sub(s.now()).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		v.Deadline = &deadline
		v.RemainingSeconds = &remaining
	}
	return v
}

// Start 计数、校验次数上限与插入在同一事务内完成，并对 (evaluation, user) 计数行加锁。
// 已有进行中的作答时直接复用，不会产生第二条 in-progress 记录。
func (s *AttemptService) Start(ctx context.Context, evaluationID, userID uint) (*AttemptView, error) {
	ctx, span := tracing.StartSpan(ctx, "attempt.start")
	defer span.End()

	eval, err := s.loadEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	if !eval.IsActive {
		return nil, ErrEvaluationInactive
	}

	var (
		attempt *model.Attempt
		created bool
	)
	err = withRetry(ctx, func() error {
		created = false
		txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := s.Attempts.WithTx(tx)
			if err := repo.LockSlot(ctx, evaluationID, userID); err != nil {
				return storageError("lock attempt slot", err)
			}

			completed, err := repo.CountCompleted(ctx, evaluationID, userID)
			if err != nil {
				return storageError("count attempts", err)
			}
			if completed >= int64(eval.MaxAttempts) {
				return ErrAttemptsExhausted
			}

			existing, err := repo.FindInProgress(ctx, evaluationID, userID)
			if err != nil {
				return storageError("find in-progress attempt", err)
			}
			if existing != nil {
				attempt = existing
				return nil
			}

			a := &model.Attempt{
				EvaluationID:  evaluationID,
				UserID:        userID,
				AttemptNumber: int(completed) + 1,
				Status:        model.AttemptInProgress,
				StartedAt:     s.now(),
			}
			if err := repo.Create(ctx, a); err != nil {
				if isDuplicate(err) {
					return ErrDuplicateAttempt
				}
				return storageError("create attempt", err)
			}
			attempt = a
			created = true
			return nil
		})
		return storageError("start attempt", txErr)
	})
	if err != nil {
		if errors.Is(err, ErrAttemptsExhausted) {
			s.Log.Info("attempts exhausted",
				zap.Uint("evaluationId", evaluationID),
				zap.Uint("userId", userID),
				zap.Int("maxAttempts", eval.MaxAttempts))
		}
		return nil, err
	}

	if created {
		monitoring.AttemptsStarted.Inc()
		s.Log.Info("attempt started",
			zap.Uint("attemptId", attempt.ID),
			zap.Uint("evaluationId", evaluationID),
			zap.Uint("userId", userID),
			zap.Int("attemptNumber", attempt.AttemptNumber))
	}
	return s.view(attempt, eval), nil
}

// FetchQuestions 返回去除正确标记的题目；开启乱序时每次请求重新打乱
func (s *AttemptService) FetchQuestions(ctx context.Context, evaluationID, userID, attemptID uint) ([]QuestionView, error) {
	ctx, span := tracing.StartSpan(ctx, "attempt.questions")
	defer span.End()

	attempt, err := s.loadOwnedAttempt(ctx, evaluationID, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, ErrInvalidAttempt
	}

	eval, err := s.loadEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}

	qs, err := s.Evaluations.ListQuestions(ctx, evaluationID)
	if err != nil {
		return nil, storageError("load questions", err)
	}

	views := redactQuestions(qs)
	if eval.ShuffleQuestions {
		s.shuffle(len(views), func(i, j int) { views[i], views[j] = views[j], views[i] })
	}
	if eval.ShuffleOptions {
		for i := range views {
			opts := views[i].Options
			s.shuffle(len(opts), func(a, b int) { opts[a], opts[b] = opts[b], opts[a] })
		}
	}
	return views, nil
}

func redactQuestions(qs []model.Question) []QuestionView {
	views := make([]QuestionView, len(qs))
	for i, q := range qs {
		opts := make([]OptionView, len(q.Options))
		for j, o := range q.Options {
			opts[j] = OptionView{ID: o.ID, Text: o.Text, Order: o.Order}
		}
		views[i] = QuestionView{
			ID:      q.ID,
			Text:    q.Text,
			Type:    q.Type,
			Points:  q.Points,
			Order:   q.Order,
			Options: opts,
		}
	}
	return views
}

// Submit 判分并以条件更新一次性落库；重复提交得到 InvalidAttempt，不会重新判分
func (s *AttemptService) Submit(ctx context.Context, evaluationID, userID, attemptID uint, req SubmitRequest) (*SubmitResult, error) {
	ctx, span := tracing.StartSpan(ctx, "attempt.submit")
	defer span.End()

	if req.TimeSpent < 0 {
		return nil, ErrInvalidAnswers.WithDetail("timeSpent must not be negative")
	}

	attempt, err := s.loadOwnedAttempt(ctx, evaluationID, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, ErrInvalidAttempt
	}

	eval, err := s.loadEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}

	qs, err := s.Evaluations.ListQuestions(ctx, evaluationID)
	if err != nil {
		return nil, storageError("load questions", err)
	}
	if err := ValidateAnswers(qs, req.Answers); err != nil {
		return nil, err
	}

	scored := ScoreAnswers(qs, req.Answers)

	answers := req.Answers
	if answers == nil {
		answers = []model.AnswerSubmission{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, ErrInvalidAnswers.WithDetail("%v", err)
	}

	completion := repository.AttemptCompletion{
		CompletedAt: s.now(),
		TimeSpent:   req.TimeSpent,
		Score:       scored.Score,
		Answers:     raw,
	}
	err = withRetry(ctx, func() error {
		rows, err := s.Attempts.Complete(ctx, attemptID, completion)
		if err != nil {
			return storageError("complete attempt", err)
		}
		if rows == 0 {
			return ErrInvalidAttempt
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{
		AttemptID:      attempt.ID,
		AttemptNumber:  attempt.AttemptNumber,
		Score:          scored.Score,
		CorrectAnswers: scored.CorrectAnswers,
		TotalQuestions: scored.TotalQuestions,
		Passed:         eval.Passed(scored.Score),
	}

	outcome := "failed"
	if result.Passed {
		outcome = "passed"
	}
	monitoring.AttemptsSubmitted.WithLabelValues(outcome).Inc()
	monitoring.AttemptScore.Observe(float64(result.Score))
	s.Log.Info("attempt submitted",
		zap.Uint("attemptId", attempt.ID),
		zap.Uint("evaluationId", evaluationID),
		zap.Uint("userId", userID),
		zap.Int("score", result.Score),
		zap.Bool("passed", result.Passed))

	payload := event.AttemptSubmittedPayload{
		AttemptID:      attempt.ID,
		EvaluationID:   evaluationID,
		UserID:         userID,
		CourseID:       eval.CourseID,
		ModuleID:       eval.ModuleID,
		AttemptNumber:  attempt.AttemptNumber,
		Score:          result.Score,
		CorrectAnswers: result.CorrectAnswers,
		TotalQuestions: result.TotalQuestions,
		Passed:         result.Passed,
	}
	if err := s.Events.Publish(ctx, event.AttemptSubmitted, payload); err != nil {
		s.Log.Warn("publish attempt.submitted failed", zap.Uint("attemptId", attempt.ID), zap.Error(err))
	}

	if result.Passed && eval.ModuleID != nil && s.Modules != nil && s.completeModuleOnPass.Load() {
		mc, err := s.Modules.CompleteModule(ctx, userID, *eval.ModuleID)
		if err != nil {
			// 成绩已提交，模块进度可由客户端重新上报
			s.Log.Warn("complete module after pass failed",
				zap.Uint("attemptId", attempt.ID),
				zap.Uint("moduleId", *eval.ModuleID),
				zap.Error(err))
		} else {
			result.ModuleCompletion = mc
		}
	}
	return result, nil
}

type QuestionReview struct {
	QuestionID        uint   `json:"questionId"`
	Text              string `json:"text"`
	SelectedOptionIDs []uint `json:"selectedOptionIds"`
	Correct           bool   `json:"correct"`
	CorrectOptionIDs  []uint `json:"correctOptionIds"`
	Explanation       string `json:"explanation,omitempty"`
}

type AttemptResult struct {
	AttemptID      uint             `json:"attemptId"`
	AttemptNumber  int              `json:"attemptNumber"`
	StartedAt      time.Time        `json:"startedAt"`
	CompletedAt    *time.Time       `json:"completedAt"`
	TimeSpent      int              `json:"timeSpent"`
	Score          int              `json:"score"`
	Passed         bool             `json:"passed"`
	CorrectAnswers int              `json:"correctAnswers"`
	TotalQuestions int              `json:"totalQuestions"`
	Review         []QuestionReview `json:"review,omitempty"`
}

// GetResult 已完成作答的成绩；只有测验开启 ShowCorrectAnswers 时才附带逐题解析
func (s *AttemptService) GetResult(ctx context.Context, evaluationID, userID, attemptID uint) (*AttemptResult, error) {
	attempt, err := s.loadOwnedAttempt(ctx, evaluationID, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptCompleted || attempt.Score == nil {
		return nil, ErrAttemptNotCompleted
	}

	eval, err := s.loadEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	qs, err := s.Evaluations.ListQuestions(ctx, evaluationID)
	if err != nil {
		return nil, storageError("load questions", err)
	}

	var answers []model.AnswerSubmission
	if len(attempt.UserAnswers) > 0 {
		if err := json.Unmarshal(attempt.UserAnswers, &answers); err != nil {
			return nil, storageError("decode answers", err)
		}
	}
	scored := ScoreAnswers(qs, answers)

	res := &AttemptResult{
		AttemptID:      attempt.ID,
		AttemptNumber:  attempt.AttemptNumber,
		StartedAt:      attempt.StartedAt,
		CompletedAt:    attempt.CompletedAt,
		TimeSpent:      attempt.TimeSpent,
		Score:          *attempt.Score,
		Passed:         eval.Passed(*attempt.Score),
		CorrectAnswers: scored.CorrectAnswers,
		TotalQuestions: scored.TotalQuestions,
	}
	if !eval.ShowCorrectAnswers {
		return res, nil
	}

	selected := make(map[uint][]uint, len(answers))
	for _, a := range answers {
		selected[a.QuestionID] = a.SelectedOptionIDs
	}
	res.Review = make([]QuestionReview, len(qs))
	for i := range qs {
		q := &qs[i]
		sel := selected[q.ID]
		if sel == nil {
			sel = []uint{}
		}
		res.Review[i] = QuestionReview{
			QuestionID:        q.ID,
			Text:              q.Text,
			SelectedOptionIDs: sel,
			Correct:           scored.Correct[q.ID],
			CorrectOptionIDs:  q.CorrectOptionIDs(),
			Explanation:       q.Explanation,
		}
	}
	return res, nil
}

type AttemptHistory struct {
	EvaluationID      uint            `json:"evaluationId"`
	MaxAttempts       int             `json:"maxAttempts"`
	CompletedAttempts int             `json:"completedAttempts"`
	RemainingAttempts int             `json:"remainingAttempts"`
	BestScore         *int            `json:"bestScore"`
	Passed            bool            `json:"passed"`
	Attempts          []model.Attempt `json:"attempts"`
}

func (s *AttemptService) ListAttempts(ctx context.Context, evaluationID, userID uint) (*AttemptHistory, error) {
	eval, err := s.loadEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.Attempts.ListByUser(ctx, evaluationID, userID)
	if err != nil {
		return nil, storageError("list attempts", err)
	}

	h := &AttemptHistory{
		EvaluationID: evaluationID,
		MaxAttempts:  eval.MaxAttempts,
		Attempts:     attempts,
	}
	for _, a := range attempts {
		if a.Status != model.AttemptCompleted || a.Score == nil {
			continue
		}
		h.CompletedAttempts++
		if h.BestScore == nil || *a.Score > *h.BestScore {
			best := *a.Score
			h.BestScore = &best
		}
	}
	if h.BestScore != nil {
		h.Passed = eval.Passed(*h.BestScore)
	}
	h.RemainingAttempts = eval.MaxAttempts - h.CompletedAttempts
	if h.RemainingAttempts < 0 {
		h.RemainingAttempts = 0
	}
	return h, nil
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in-progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// Attempt 一次作答；AttemptNumber 在 (evaluation, user) 内从 1 递增
// swagger:model Attempt
type Attempt struct {
	BaseModel
	EvaluationID  uint           `gorm:"uniqueIndex:idx_attempt_number;index:idx_attempt_eval_user_status;not null" json:"evaluationId"`
	UserID        uint           `gorm:"uniqueIndex:idx_attempt_number;index:idx_attempt_eval_user_status;not null" json:"userId"`
	AttemptNumber int            `gorm:"uniqueIndex:idx_attempt_number;not null" json:"attemptNumber"`
	Status        AttemptStatus  `gorm:"size:20;index:idx_attempt_eval_user_status;default:'in-progress'" json:"status"`
	StartedAt     time.Time      `json:"startedAt"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty"`
	TimeSpent     int            `gorm:"default:0" json:"timeSpent"` // seconds
	Score         *int           `json:"score"`
	UserAnswers   datatypes.JSON `json:"-"`
}

func (Attempt) TableName() string {
	return "evaluation_attempts"
}

// AttemptSlot 每个 (evaluation, user) 一行，开始作答时加行锁串行化编号分配
type AttemptSlot struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	EvaluationID uint      `gorm:"uniqueIndex:idx_attempt_slot;not null"`
	UserID       uint      `gorm:"uniqueIndex:idx_attempt_slot;not null"`
	UpdatedAt    time.Time
}

func (AttemptSlot) TableName() string {
	return "evaluation_attempt_slots"
}

// AnswerSubmission 单题作答，按 JSON 原样存入 Attempt.UserAnswers
type AnswerSubmission struct {
	QuestionID        uint   `json:"questionId"`
	SelectedOptionIDs []uint `json:"selectedOptionIds"`
}

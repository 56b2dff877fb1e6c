package event

import "time"

type AttemptSubmittedPayload struct {
	AttemptID      uint  `json:"attemptId"`
	EvaluationID   uint  `json:"evaluationId"`
	UserID         uint  `json:"userId"`
	CourseID       uint  `json:"courseId"`
	ModuleID       *uint `json:"moduleId,omitempty"`
	AttemptNumber  int   `json:"attemptNumber"`
	Score          int   `json:"score"`
	CorrectAnswers int   `json:"correctAnswers"`
	TotalQuestions int   `json:"totalQuestions"`
	Passed         bool  `json:"passed"`
}

type CourseCompletedPayload struct {
	UserID      uint      `json:"userId"`
	CourseID    uint      `json:"courseId"`
	CompletedAt time.Time `json:"completedAt"`
}

type CertificatePayload struct {
	CertificateID     uint      `json:"certificateId"`
	CertificateNumber string    `json:"certificateNumber"`
	UserID            uint      `json:"userId"`
	CourseID          uint      `json:"courseId"`
	Score             int       `json:"score,omitempty"`
	ExpirationDate    time.Time `json:"expirationDate"`
}

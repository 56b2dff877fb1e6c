package model

type QuestionType string

const (
	SingleChoice   QuestionType = "single-choice"
	MultipleChoice QuestionType = "multiple-choice"
)

func (t QuestionType) Valid() bool {
	return t == SingleChoice || t == MultipleChoice
}

// Evaluation 课程/模块下的测验配置；产生作答记录后视为不可变
// swagger:model Evaluation
type Evaluation struct {
	BaseModel
	CourseID           uint   `gorm:"index;not null" json:"courseId"`
	ModuleID           *uint  `gorm:"index" json:"moduleId,omitempty"`
	Title              string `gorm:"size:255;not null" json:"title"`
	Description        string `gorm:"type:text" json:"description"`
	TimeLimit          int    `gorm:"default:0" json:"timeLimit"` // Minutes, 0 = 不限时
	PassingScore       int    `gorm:"not null" json:"passingScore"`
	MaxAttempts        int    `gorm:"default:1" json:"maxAttempts"`
	ShuffleQuestions   bool   `gorm:"default:false" json:"shuffleQuestions"`
	ShuffleOptions     bool   `gorm:"default:false" json:"shuffleOptions"`
	ShowCorrectAnswers bool   `gorm:"default:false" json:"showCorrectAnswers"`
	IsActive           bool   `gorm:"not null" json:"isActive"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

func (e *Evaluation) Passed(score int) bool {
	return score >= e.PassingScore
}

type Question struct {
	BaseModel
	EvaluationID uint         `gorm:"index;not null" json:"evaluationId"`
	Text         string       `gorm:"type:text;not null" json:"text"`
	Type         QuestionType `gorm:"size:20;not null" json:"type"`
	Points       int          `gorm:"default:1" json:"points"`
	Order        int          `gorm:"default:0" json:"order"`
	Explanation  string       `gorm:"type:text" json:"-"`
	Options      []Option     `gorm:"foreignKey:QuestionID" json:"options"`
}

func (Question) TableName() string {
	return "evaluation_questions"
}

// CorrectOptionIDs 返回标记为正确的选项 ID
func (q *Question) CorrectOptionIDs() []uint {
	ids := make([]uint, 0, len(q.Options))
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

type Option struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Text       string `gorm:"type:text;not null" json:"text"`
	// 判分前绝不下发
	IsCorrect bool `gorm:"default:false" json:"-"`
	Order     int  `gorm:"default:0" json:"order"`
}

func (Option) TableName() string {
	return "evaluation_options"
}

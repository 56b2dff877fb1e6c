package model

import "time"

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not-started"
	ProgressViewed     ProgressStatus = "viewed"
	ProgressCompleted  ProgressStatus = "completed"
)

var progressRank = map[ProgressStatus]int{
	ProgressNotStarted: 0,
	ProgressViewed:     1,
	ProgressCompleted:  2,
}

func (s ProgressStatus) Valid() bool {
	_, ok := progressRank[s]
	return ok
}

// Below 返回排在 s 之前的状态，用于只前进不回退的条件更新
func (s ProgressStatus) Below() []ProgressStatus {
	var out []ProgressStatus
	for _, st := range []ProgressStatus{ProgressNotStarted, ProgressViewed, ProgressCompleted} {
		if progressRank[st] < progressRank[s] {
			out = append(out, st)
		}
	}
	return out
}

type ModuleProgress struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint           `gorm:"uniqueIndex:idx_progress_user_module;not null" json:"userId"`
	ModuleID    uint           `gorm:"uniqueIndex:idx_progress_user_module;not null" json:"moduleId"`
	CourseID    uint           `gorm:"index;not null" json:"courseId"`
	Status      ProgressStatus `gorm:"size:20;default:'not-started'" json:"status"`
	ViewedAt    *time.Time     `json:"viewedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (ModuleProgress) TableName() string {
	return "module_progress"
}

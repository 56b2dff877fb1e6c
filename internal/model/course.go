package model

import "time"

// swagger:model Course
type Course struct {
	BaseModel
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	IsPublished bool   `gorm:"default:false" json:"isPublished"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseModule 课程内按 Order 顺序解锁的单元
type CourseModule struct {
	BaseModel
	CourseID    uint   `gorm:"index;not null" json:"courseId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Order       int    `gorm:"default:0" json:"order"`
	IsPublished bool   `gorm:"default:false" json:"isPublished"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

type EnrollmentStatus string

const (
	EnrollmentEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentCompleted EnrollmentStatus = "completed"
)

type Enrollment struct {
	BaseModel
	UserID      uint             `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"userId"`
	CourseID    uint             `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"courseId"`
	Status      EnrollmentStatus `gorm:"size:20;default:'enrolled'" json:"status"`
	EnrolledAt  time.Time        `json:"enrolledAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

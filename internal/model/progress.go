package model

import (
	"time"

	"gorm.io/gorm"
)

// 学习记录条目类型
const (
	ItemTypeLecture  = "lecture"
	ItemTypeQuiz     = "quiz"
	ItemTypeResource = "resource"
)

// 学习记录状态
const (
	ProgressInProgress = "in_progress"
	ProgressCompleted  = "completed"
)

// CurriculumProgress 课程学习记录台账 — 对应 curriculum_progress
// 每个 (用户, 条目类型, 条目) 仅一行
type CurriculumProgress struct {
	ProgressID string `gorm:"type:uuid;primaryKey"                                                   json:"progress_id"`
	UserID     string `gorm:"type:uuid;not null;uniqueIndex:uk_progress_user_item,priority:1"        json:"user_id"`
	CourseID   string `gorm:"type:uuid;not null;index"                                               json:"course_id"`
	ChapterID  string `gorm:"type:uuid;not null;index"                                               json:"chapter_id"`
	ItemType   string `gorm:"type:varchar(20);not null;uniqueIndex:uk_progress_user_item,priority:2" json:"item_type"`
	ItemID     string `gorm:"type:uuid;not null;uniqueIndex:uk_progress_user_item,priority:3"        json:"item_id"`
	Status     string `gorm:"type:varchar(20);not null;default:'in_progress'"                        json:"status"`
	BaseModel
}

// TableName 指定表名
func (CurriculumProgress) TableName() string { return "curriculum_progress" }

// BeforeCreate 生成主键
func (p *CurriculumProgress) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.ProgressID)
	return nil
}

// 作业提交状态
const (
	SubmissionPending   = "pending"
	SubmissionSubmitted = "submitted"
	SubmissionAccepted  = "accepted"
	SubmissionRejected  = "rejected"
)

// SubmittedStatuses 计入课程完成判定的提交状态
var SubmittedStatuses = []string{SubmissionSubmitted, SubmissionAccepted}

// AssignmentSubmission 作业提交 — 对应 assignment_submissions
type AssignmentSubmission struct {
	SubmissionID string `gorm:"type:uuid;primaryKey"                        json:"submission_id"`
	AssignmentID string `gorm:"type:uuid;not null;index"                    json:"assignment_id"`
	UserID       string `gorm:"type:uuid;not null;index"                    json:"user_id"`
	Status       string `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	BaseModel
}

// TableName 指定表名
func (AssignmentSubmission) TableName() string { return "assignment_submissions" }

// BeforeCreate 生成主键
func (s *AssignmentSubmission) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.SubmissionID)
	return nil
}

// VideoWatchProgress 视频观看进度 — 对应 video_watch_progress
type VideoWatchProgress struct {
	WatchID        string `gorm:"type:uuid;primaryKey"                                            json:"watch_id"`
	UserID         string `gorm:"type:uuid;not null;uniqueIndex:uk_watch_user_lecture,priority:1" json:"user_id"`
	CourseID       string `gorm:"type:uuid;not null;index"                                        json:"course_id"`
	LectureID      string `gorm:"type:uuid;not null;uniqueIndex:uk_watch_user_lecture,priority:2" json:"lecture_id"`
	WatchedSeconds int    `gorm:"not null;default:0"                                              json:"watched_seconds"`
	BaseModel
}

// TableName 指定表名
func (VideoWatchProgress) TableName() string { return "video_watch_progress" }

// BeforeCreate 生成主键
func (w *VideoWatchProgress) BeforeCreate(_ *gorm.DB) error {
	ensureID(&w.WatchID)
	return nil
}

// 测验作答状态
const (
	AttemptInProgress = "in_progress"
	AttemptCompleted  = "completed"
)

// QuizAttempt 测验作答记录 — 对应 user_quiz_attempts
type QuizAttempt struct {
	AttemptID   string     `gorm:"type:uuid;primaryKey"                            json:"attempt_id"`
	UserID      string     `gorm:"type:uuid;not null;index:idx_attempt_user_quiz"   json:"user_id"`
	QuizID      string     `gorm:"type:uuid;not null;index:idx_attempt_user_quiz"   json:"quiz_id"`
	Status      string     `gorm:"type:varchar(20);not null;default:'in_progress'" json:"status"`
	Score       float64    `gorm:"not null;default:0"                              json:"score"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (QuizAttempt) TableName() string { return "user_quiz_attempts" }

// BeforeCreate 生成主键
func (a *QuizAttempt) BeforeCreate(_ *gorm.DB) error {
	ensureID(&a.AttemptID)
	return nil
}

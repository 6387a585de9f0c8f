package model

import "gorm.io/gorm"

// Course 课程表 — 对应 courses
type Course struct {
	CourseID string `gorm:"type:uuid;primaryKey"          json:"course_id"`
	Title    string `gorm:"type:varchar(255);not null"    json:"title"`
	Slug     string `gorm:"type:varchar(255);uniqueIndex" json:"slug"`
	IsActive bool   `gorm:"not null"                      json:"is_active"`
	BaseModel

	// 关联
	Chapters []Chapter `gorm:"foreignKey:CourseID;references:CourseID" json:"chapters,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// BeforeCreate 生成主键
func (c *Course) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.CourseID)
	return nil
}

// Chapter 课程章节 — 对应 course_chapters
type Chapter struct {
	ChapterID string `gorm:"type:uuid;primaryKey"       json:"chapter_id"`
	CourseID  string `gorm:"type:uuid;not null;index"   json:"course_id"`
	Title     string `gorm:"type:varchar(255);not null" json:"title"`
	SortOrder int    `gorm:"not null;default:0"         json:"sort_order"`
	IsActive  bool   `gorm:"not null"                   json:"is_active"`
	BaseModel

	// 关联
	Lectures    []Lecture          `gorm:"foreignKey:ChapterID;references:ChapterID" json:"lectures,omitempty"`
	Quizzes     []Quiz             `gorm:"foreignKey:ChapterID;references:ChapterID" json:"quizzes,omitempty"`
	Resources   []LearningResource `gorm:"foreignKey:ChapterID;references:ChapterID" json:"resources,omitempty"`
	Assignments []Assignment       `gorm:"foreignKey:ChapterID;references:ChapterID" json:"assignments,omitempty"`
}

// TableName 指定表名
func (Chapter) TableName() string { return "course_chapters" }

// BeforeCreate 生成主键
func (c *Chapter) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.ChapterID)
	return nil
}

// Lecture 课时 — 对应 course_lectures
// DurationSeconds > 0 表示视频课时，参与观看进度统计
type Lecture struct {
	LectureID       string `gorm:"type:uuid;primaryKey"       json:"lecture_id"`
	ChapterID       string `gorm:"type:uuid;not null;index"   json:"chapter_id"`
	CourseID        string `gorm:"type:uuid;not null;index"   json:"course_id"`
	Title           string `gorm:"type:varchar(255);not null" json:"title"`
	DurationSeconds int    `gorm:"not null;default:0"         json:"duration_seconds"`
	IsActive        bool   `gorm:"not null"                   json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Lecture) TableName() string { return "course_lectures" }

// BeforeCreate 生成主键
func (l *Lecture) BeforeCreate(_ *gorm.DB) error {
	ensureID(&l.LectureID)
	return nil
}

// IsVideo 是否为视频课时
func (l *Lecture) IsVideo() bool { return l.DurationSeconds > 0 }

// Quiz 测验 — 对应 course_quizzes
type Quiz struct {
	QuizID    string `gorm:"type:uuid;primaryKey"       json:"quiz_id"`
	ChapterID string `gorm:"type:uuid;not null;index"   json:"chapter_id"`
	CourseID  string `gorm:"type:uuid;not null;index"   json:"course_id"`
	Title     string `gorm:"type:varchar(255);not null" json:"title"`
	IsActive  bool   `gorm:"not null"                   json:"is_active"`
	BaseModel

	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (Quiz) TableName() string { return "course_quizzes" }

// BeforeCreate 生成主键
func (q *Quiz) BeforeCreate(_ *gorm.DB) error {
	ensureID(&q.QuizID)
	return nil
}

// LearningResource 章节资料 — 对应 course_resources
type LearningResource struct {
	ResourceID string `gorm:"type:uuid;primaryKey"       json:"resource_id"`
	ChapterID  string `gorm:"type:uuid;not null;index"   json:"chapter_id"`
	CourseID   string `gorm:"type:uuid;not null;index"   json:"course_id"`
	Title      string `gorm:"type:varchar(255);not null" json:"title"`
	IsActive   bool   `gorm:"not null"                   json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (LearningResource) TableName() string { return "course_resources" }

// BeforeCreate 生成主键
func (r *LearningResource) BeforeCreate(_ *gorm.DB) error {
	ensureID(&r.ResourceID)
	return nil
}

// Assignment 作业 — 对应 course_assignments
// CanSkip=true 的作业不影响课程完成判定
type Assignment struct {
	AssignmentID string `gorm:"type:uuid;primaryKey"       json:"assignment_id"`
	ChapterID    string `gorm:"type:uuid;not null;index"   json:"chapter_id"`
	CourseID     string `gorm:"type:uuid;not null;index"   json:"course_id"`
	Title        string `gorm:"type:varchar(255);not null" json:"title"`
	CanSkip      bool   `gorm:"not null;default:false"     json:"can_skip"`
	IsActive     bool   `gorm:"not null"                   json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Assignment) TableName() string { return "course_assignments" }

// BeforeCreate 生成主键
func (a *Assignment) BeforeCreate(_ *gorm.DB) error {
	ensureID(&a.AssignmentID)
	return nil
}

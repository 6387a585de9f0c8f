package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"lms-certificate/backend/internal/model"
	"lms-certificate/backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id 或 "email:"+email
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	m.users["email:"+user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.users["email:"+email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock CourseRepository ──

// 课程结构按"已过滤"的形态存放：只放启用的章节与条目
type mockCourseRepo struct {
	courses map[string]*model.Course
	err     error
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetWithCurriculum(ctx context.Context, id string) (*model.Course, error) {
	return m.GetByID(ctx, id)
}

// ── Mock QuizRepository ──

type mockQuizRepo struct {
	quizzes  map[string]*model.Quiz
	attempts []model.QuizAttempt
}

func newMockQuizRepo() *mockQuizRepo {
	return &mockQuizRepo{quizzes: make(map[string]*model.Quiz)}
}

func (m *mockQuizRepo) GetByID(_ context.Context, id string) (*model.Quiz, error) {
	if q, ok := m.quizzes[id]; ok {
		return q, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockQuizRepo) CountAttempts(_ context.Context, userID, quizID string) (int64, error) {
	var n int64
	for _, a := range m.attempts {
		if a.UserID == userID && a.QuizID == quizID {
			n++
		}
	}
	return n, nil
}

func (m *mockQuizRepo) LatestCompletedAttempt(_ context.Context, userID, quizID string) (*model.QuizAttempt, error) {
	var latest *model.QuizAttempt
	for i := range m.attempts {
		a := &m.attempts[i]
		if a.UserID != userID || a.QuizID != quizID || a.Status != model.AttemptCompleted || a.CompletedAt == nil {
			continue
		}
		if latest == nil || a.CompletedAt.After(*latest.CompletedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

// ── Mock ProgressRepository ──

type mockProgressRepo struct {
	rows []model.CurriculumProgress
}

func (m *mockProgressRepo) CountCompletedByKind(_ context.Context, userID string, chapterIDs []string) (map[string]int64, error) {
	inScope := make(map[string]bool, len(chapterIDs))
	for _, id := range chapterIDs {
		inScope[id] = true
	}
	out := make(map[string]int64)
	for _, r := range m.rows {
		if r.UserID == userID && r.Status == model.ProgressCompleted && inScope[r.ChapterID] {
			out[r.ItemType]++
		}
	}
	return out, nil
}

// ── Mock SubmissionRepository ──

type mockSubmissionRepo struct {
	rows []model.AssignmentSubmission
}

func (m *mockSubmissionRepo) CountSubmittedAssignments(_ context.Context, userID string, assignmentIDs []string) (int64, error) {
	wanted := make(map[string]bool, len(assignmentIDs))
	for _, id := range assignmentIDs {
		wanted[id] = true
	}
	seen := make(map[string]bool)
	for _, r := range m.rows {
		if r.UserID != userID || !wanted[r.AssignmentID] {
			continue
		}
		if r.Status == model.SubmissionSubmitted || r.Status == model.SubmissionAccepted {
			seen[r.AssignmentID] = true
		}
	}
	return int64(len(seen)), nil
}

// ── Mock VideoWatchRepository ──

type mockVideoWatchRepo struct {
	watched map[string]int // key: userID + ":" + lectureID
}

func newMockVideoWatchRepo() *mockVideoWatchRepo {
	return &mockVideoWatchRepo{watched: make(map[string]int)}
}

func (m *mockVideoWatchRepo) WatchedSeconds(_ context.Context, userID string, lectureIDs []string) (map[string]int, error) {
	out := make(map[string]int)
	for _, id := range lectureIDs {
		if w, ok := m.watched[userID+":"+id]; ok {
			out[id] = w
		}
	}
	return out, nil
}

// ── Mock CertificateRepository ──

// 以互斥锁模拟数据库唯一约束，可用于并发签发测试
type mockCertificateRepo struct {
	mu        sync.Mutex
	byKey     map[string]*model.Certificate // key: userID + ":" + courseID
	bySerial  map[string]*model.Certificate
	inserts   int
	createErr error
}

func newMockCertificateRepo() *mockCertificateRepo {
	return &mockCertificateRepo{
		byKey:    make(map[string]*model.Certificate),
		bySerial: make(map[string]*model.Certificate),
	}
}

func (m *mockCertificateRepo) seed(cert *model.Certificate) {
	m.byKey[cert.UserID+":"+cert.CourseID] = cert
	m.bySerial[cert.SerialNumber] = cert
}

func (m *mockCertificateRepo) CreateIfAbsent(_ context.Context, cert *model.Certificate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return false, m.createErr
	}
	if _, ok := m.bySerial[cert.SerialNumber]; ok {
		return false, gorm.ErrDuplicatedKey
	}
	if _, ok := m.byKey[cert.UserID+":"+cert.CourseID]; ok {
		return false, nil
	}
	if cert.CertificateID == "" {
		cert.CertificateID = "cert-" + cert.SerialNumber
	}
	stored := *cert
	m.seed(&stored)
	m.inserts++
	return true, nil
}

func (m *mockCertificateRepo) GetByUserCourse(_ context.Context, userID, courseID string) (*model.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byKey[userID+":"+courseID]; ok {
		out := *c
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCertificateRepo) GetBySerial(_ context.Context, serial string) (*model.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.bySerial[serial]; ok {
		out := *c
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCertificateRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.Certificate, int64, error) {
	var all []model.Certificate
	for _, c := range m.byKey {
		if c.UserID == userID {
			all = append(all, *c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].IssuedAt.After(all[j].IssuedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Certificate{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockCertificateRepo) ListByCourse(_ context.Context, courseID string) ([]model.Certificate, error) {
	var out []model.Certificate
	for _, c := range m.byKey {
		if c.CourseID == courseID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.Before(out[j].IssuedAt) })
	return out, nil
}

// ── Mock QuizCertificateRepository ──

type mockQuizCertificateRepo struct {
	mu       sync.Mutex
	byKey    map[string]*model.QuizCertificate // key: userID + ":" + attemptID
	bySerial map[string]*model.QuizCertificate
}

func newMockQuizCertificateRepo() *mockQuizCertificateRepo {
	return &mockQuizCertificateRepo{
		byKey:    make(map[string]*model.QuizCertificate),
		bySerial: make(map[string]*model.QuizCertificate),
	}
}

func (m *mockQuizCertificateRepo) seed(cert *model.QuizCertificate) {
	m.byKey[cert.UserID+":"+cert.UserQuizAttemptID] = cert
	m.bySerial[cert.SerialNumber] = cert
}

func (m *mockQuizCertificateRepo) CreateIfAbsent(_ context.Context, cert *model.QuizCertificate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bySerial[cert.SerialNumber]; ok {
		return false, gorm.ErrDuplicatedKey
	}
	if _, ok := m.byKey[cert.UserID+":"+cert.UserQuizAttemptID]; ok {
		return false, nil
	}
	stored := *cert
	m.seed(&stored)
	return true, nil
}

func (m *mockQuizCertificateRepo) GetByUserAttempt(_ context.Context, userID, attemptID string) (*model.QuizCertificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byKey[userID+":"+attemptID]; ok {
		out := *c
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockQuizCertificateRepo) GetBySerial(_ context.Context, serial string) (*model.QuizCertificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.bySerial[serial]; ok {
		out := *c
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock TemplateRepository ──

type mockTemplateRepo struct {
	templates []*model.CertificateTemplate
}

func (m *mockTemplateRepo) GetActive(_ context.Context, templateType string) (*model.CertificateTemplate, error) {
	var newest *model.CertificateTemplate
	for _, t := range m.templates {
		if !t.IsActive || t.Type != templateType {
			continue
		}
		if newest == nil || t.CreatedAt.After(newest.CreatedAt) {
			newest = t
		}
	}
	if newest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return newest, nil
}

func (m *mockTemplateRepo) GetByID(_ context.Context, id string) (*model.CertificateTemplate, error) {
	for _, t := range m.templates {
		if t.TemplateID == id {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── 聚合 ──

type mockRepos struct {
	user        *mockUserRepo
	course      *mockCourseRepo
	quiz        *mockQuizRepo
	progress    *mockProgressRepo
	submission  *mockSubmissionRepo
	video       *mockVideoWatchRepo
	cert        *mockCertificateRepo
	quizCert    *mockQuizCertificateRepo
	template    *mockTemplateRepo
	aggregation *repository.Repository
}

func newMockRepos() *mockRepos {
	m := &mockRepos{
		user:       newMockUserRepo(),
		course:     newMockCourseRepo(),
		quiz:       newMockQuizRepo(),
		progress:   &mockProgressRepo{},
		submission: &mockSubmissionRepo{},
		video:      newMockVideoWatchRepo(),
		cert:       newMockCertificateRepo(),
		quizCert:   newMockQuizCertificateRepo(),
		template:   &mockTemplateRepo{},
	}
	m.aggregation = &repository.Repository{
		User:            m.user,
		Course:          m.course,
		Quiz:            m.quiz,
		Progress:        m.progress,
		Submission:      m.submission,
		VideoWatch:      m.video,
		Certificate:     m.cert,
		QuizCertificate: m.quizCert,
		Template:        m.template,
	}
	return m
}

// ── 测试数据构造 ──

// seedCourse 创建一门启用课程：一个章节，含一个 600 秒视频讲次、一个测验、一个资源、一份必做作业与一份可跳过作业
func (m *mockRepos) seedCourse(courseID string) *model.Course {
	ch := "ch-" + courseID
	course := &model.Course{
		CourseID: courseID,
		Title:    "Systems 101",
		IsActive: true,
		Chapters: []model.Chapter{{
			ChapterID: ch,
			CourseID:  courseID,
			IsActive:  true,
			Lectures: []model.Lecture{
				{LectureID: "lec-" + courseID, ChapterID: ch, CourseID: courseID, DurationSeconds: 600, IsActive: true},
			},
			Quizzes:   []model.Quiz{{QuizID: "quiz-" + courseID, ChapterID: ch, CourseID: courseID, IsActive: true}},
			Resources: []model.LearningResource{{ResourceID: "res-" + courseID, ChapterID: ch, CourseID: courseID, IsActive: true}},
			Assignments: []model.Assignment{
				{AssignmentID: "asg-" + courseID, ChapterID: ch, CourseID: courseID, IsActive: true},
				{AssignmentID: "opt-" + courseID, ChapterID: ch, CourseID: courseID, CanSkip: true, IsActive: true},
			},
		}},
	}
	m.course.courses[courseID] = course
	return course
}

// completeCourse 让用户完成 seedCourse 创建的全部必需内容
func (m *mockRepos) completeCourse(userID, courseID string) {
	ch := "ch-" + courseID
	for _, it := range []struct{ kind, id string }{
		{model.ItemTypeLecture, "lec-" + courseID},
		{model.ItemTypeQuiz, "quiz-" + courseID},
		{model.ItemTypeResource, "res-" + courseID},
	} {
		m.progress.rows = append(m.progress.rows, model.CurriculumProgress{
			UserID: userID, CourseID: courseID, ChapterID: ch,
			ItemType: it.kind, ItemID: it.id, Status: model.ProgressCompleted,
		})
	}
	m.submission.rows = append(m.submission.rows, model.AssignmentSubmission{
		AssignmentID: "asg-" + courseID, UserID: userID, Status: model.SubmissionSubmitted,
	})
	m.video.watched[userID+":lec-"+courseID] = 600
}

func (m *mockRepos) seedUser(userID, name string) *model.User {
	u := &model.User{UserID: userID, Name: name, Email: userID + "@example.com", Role: model.RoleStudent}
	_ = m.user.Create(context.Background(), u)
	return u
}

func (m *mockRepos) seedTemplate(id, templateType string, createdAt time.Time) *model.CertificateTemplate {
	t := &model.CertificateTemplate{
		TemplateID: id,
		Name:       id,
		Type:       templateType,
		Width:      800,
		Height:     600,
		Elements: []model.TemplateElement{
			{Type: model.ElementText, X: 40, Y: 40, Content: "[Student Name] - {{course_name}}"},
		},
		IsActive: true,
	}
	t.CreatedAt = createdAt
	m.template.templates = append(m.template.templates, t)
	return t
}

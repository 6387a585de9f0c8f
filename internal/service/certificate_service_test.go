package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"lms-certificate/backend/config"
	"lms-certificate/backend/internal/dto"
	"lms-certificate/backend/internal/model"
	"lms-certificate/backend/internal/render"
	pkgerrors "lms-certificate/backend/pkg/errors"
)

// ── 测试替身 ──

type fakeRenderer struct {
	mu      sync.Mutex
	layouts []render.Layout
	err     error
}

func (f *fakeRenderer) Render(_ context.Context, l render.Layout) (*render.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.layouts = append(f.layouts, l)
	return &render.Document{Bytes: []byte("%PDF-fake"), Filename: l.Filename, ContentType: render.ContentTypePDF}, nil
}

func (f *fakeRenderer) last() render.Layout {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.layouts[len(f.layouts)-1]
}

type fakeResolver struct{}

func (fakeResolver) PublicURL(key string) string { return "https://cdn.example.com/" + key }

type fakeCache struct {
	mu    sync.Mutex
	items map[string][]byte
	gets  int
	sets  int
}

func newFakeCache() *fakeCache { return &fakeCache{items: make(map[string][]byte)} }

func (c *fakeCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.sets++
	c.items[key] = raw
	return nil
}

// ── 测试辅助 ──

type certFixture struct {
	svc      *certificateService
	repos    *mockRepos
	renderer *fakeRenderer
	cache    *fakeCache
}

func testConfig() *config.Config {
	return &config.Config{
		Server:      config.ServerConfig{BaseURL: "https://lms.example.com"},
		Auth:        config.AuthConfig{JWTSecret: "test-secret-key-for-unit-testing", AccessTokenTTL: 15 * time.Minute},
		Certificate: config.CertificateConfig{VerifyCacheTTL: time.Hour},
	}
}

func setupCertificateService() *certFixture {
	m := newMockRepos()
	logger := zap.NewNop()
	r := &fakeRenderer{}
	cache := newFakeCache()
	svc := NewCertificateService(
		testConfig(), m.aggregation,
		NewCompletionService(m.aggregation, logger),
		NewVideoProgressService(m.aggregation, logger),
		NewTemplateService(testConfig(), m.aggregation, r, fakeResolver{}, logger),
		r, fakeResolver{}, cache, logger,
	).(*certificateService)
	return &certFixture{svc: svc, repos: m, renderer: r, cache: cache}
}

// eligible 准备一名满足全部签发条件的学员
func (f *certFixture) eligible(userID, courseID string) {
	f.repos.seedUser(userID, "Ada")
	f.repos.seedCourse(courseID)
	f.repos.completeCourse(userID, courseID)
	f.repos.seedTemplate("tpl-course", model.TemplateTypeCourseCompletion, time.Now())
}

func (f *certFixture) fixedTokens(tokens ...string) {
	i := 0
	f.svc.newToken = func() string {
		tok := tokens[i%len(tokens)]
		i++
		return tok
	}
}

// ── 课程证书签发 ──

func TestIssueCourse_Success(t *testing.T) {
	f := setupCertificateService()
	f.eligible("u1", "c1")

	cert, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("签发应成功: %v", err)
	}
	if !strings.HasPrefix(cert.SerialNumber, CourseSerialPrefix) {
		t.Errorf("编号前缀错误: %s", cert.SerialNumber)
	}
	if len(cert.SerialNumber) != len(CourseSerialPrefix)+serialTokenLen {
		t.Errorf("编号长度错误: %s", cert.SerialNumber)
	}
	if cert.SerialNumber != strings.ToUpper(cert.SerialNumber) {
		t.Errorf("编号应为大写: %s", cert.SerialNumber)
	}
}

func TestIssueCourse_Idempotent(t *testing.T) {
	f := setupCertificateService()
	f.eligible("u1", "c1")

	first, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("首次签发失败: %v", err)
	}
	second, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("再次签发失败: %v", err)
	}
	if first.SerialNumber != second.SerialNumber {
		t.Errorf("重复请求应返回同一编号: %s != %s", first.SerialNumber, second.SerialNumber)
	}
	if !first.IssuedAt.Equal(second.IssuedAt) {
		t.Error("签发时间不应改变")
	}
	if f.repos.cert.inserts != 1 {
		t.Errorf("期望只写入 1 行，实际 %d", f.repos.cert.inserts)
	}
}

func TestIssueCourse_ConcurrentRequestsShareOneCertificate(t *testing.T) {
	f := setupCertificateService()
	f.eligible("u1", "c1")

	const n = 16
	serials := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cert, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1")
			if err != nil {
				t.Errorf("并发签发失败: %v", err)
				return
			}
			serials <- cert.SerialNumber
		}()
	}
	wg.Wait()
	close(serials)

	seen := make(map[string]bool)
	for s := range serials {
		seen[s] = true
	}
	if len(seen) != 1 || f.repos.cert.inserts != 1 {
		t.Errorf("并发请求应只产生一张证书，编号 %v，写入 %d", seen, f.repos.cert.inserts)
	}
}

func TestIssueCourse_SerialCollisionRetries(t *testing.T) {
	f := setupCertificateService()
	f.eligible("u1", "c1")
	f.repos.cert.seed(&model.Certificate{UserID: "other", CourseID: "c9", SerialNumber: "CERT-AAAAAAAAAAAAAAAA"})
	f.fixedTokens("AAAAAAAAAAAAAAAA", "BBBBBBBBBBBBBBBB")

	cert, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("编号冲突后应重试成功: %v", err)
	}
	if cert.SerialNumber != "CERT-BBBBBBBBBBBBBBBB" {
		t.Errorf("期望使用新编号，实际 %s", cert.SerialNumber)
	}
}

func TestIssueCourse_SerialExhausted(t *testing.T) {
	f := setupCertificateService()
	f.eligible("u1", "c1")
	f.repos.cert.seed(&model.Certificate{UserID: "other", CourseID: "c9", SerialNumber: "CERT-AAAAAAAAAAAAAAAA"})
	f.fixedTokens("AAAAAAAAAAAAAAAA")

	_, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1")
	if !errors.Is(err, pkgerrors.ErrSerialExhausted) {
		t.Errorf("期望 ErrSerialExhausted，实际 %v", err)
	}
}

func TestIssueCourse_StorageErrorPropagates(t *testing.T) {
	f := setupCertificateService()
	f.eligible("u1", "c1")
	f.repos.cert.createErr = errors.New("disk full")

	if _, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1"); err == nil {
		t.Error("写入失败应返回错误")
	}
}

func TestIssueCourse_CourseNotFound(t *testing.T) {
	f := setupCertificateService()

	_, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "missing")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际 %v", err)
	}
}

func TestIssueCourse_Incomplete(t *testing.T) {
	f := setupCertificateService()
	f.eligible("u1", "c1")
	f.repos.submission.rows = nil

	_, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1")
	if !errors.Is(err, ErrIncompleteCourse) {
		t.Errorf("期望 ErrIncompleteCourse，实际 %v", err)
	}
}

func TestIssueCourse_VideoJustBelowHundredBlocks(t *testing.T) {
	f := setupCertificateService()
	f.eligible("u1", "c1")
	lec := &f.repos.course.courses["c1"].Chapters[0].Lectures[0]
	lec.DurationSeconds = 10000
	f.repos.video.watched["u1:lec-c1"] = 9999

	_, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1")
	if !errors.Is(err, ErrVideoProgressIncomplete) {
		t.Fatalf("期望 ErrVideoProgressIncomplete，实际 %v", err)
	}
	var vpe *VideoProgressError
	if !errors.As(err, &vpe) {
		t.Fatal("错误应携带当前进度")
	}
	if vpe.Percent != 99.99 || vpe.Remaining() != 0.01 {
		t.Errorf("期望 99.99 / 0.01，实际 %v / %v", vpe.Percent, vpe.Remaining())
	}
}

func TestIssueCourse_NoTemplate(t *testing.T) {
	f := setupCertificateService()
	f.repos.seedUser("u1", "Ada")
	f.repos.seedCourse("c1")
	f.repos.completeCourse("u1", "c1")

	_, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1")
	if !errors.Is(err, ErrNoTemplate) {
		t.Errorf("期望 ErrNoTemplate，实际 %v", err)
	}
}

func TestIssueCourse_PreconditionOrder(t *testing.T) {
	// 三项条件全部不满足时，按 完成度 → 视频 → 模板 的顺序报告第一个失败项
	f := setupCertificateService()
	f.repos.seedCourse("c1")

	_, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1")
	if !errors.Is(err, ErrIncompleteCourse) {
		t.Fatalf("应先报告课程未完成，实际 %v", err)
	}

	f.repos.completeCourse("u1", "c1")
	f.repos.video.watched["u1:lec-c1"] = 0
	_, err = f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1")
	if !errors.Is(err, ErrVideoProgressIncomplete) {
		t.Fatalf("其次报告视频进度，实际 %v", err)
	}

	f.repos.video.watched["u1:lec-c1"] = 600
	_, err = f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1")
	if !errors.Is(err, ErrNoTemplate) {
		t.Fatalf("最后报告模板缺失，实际 %v", err)
	}
}

func TestIssueCourse_PreconditionsRecheckedWhenCertificateExists(t *testing.T) {
	f := setupCertificateService()
	f.eligible("u1", "c1")
	if _, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("首次签发失败: %v", err)
	}

	f.repos.course.courses["c1"].IsActive = false
	_, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1")
	if !errors.Is(err, ErrIncompleteCourse) {
		t.Errorf("已有证书也应重新校验条件，实际 %v", err)
	}
}

// ── 下载 ──

func TestDownloadCourse_RendersSubstitutedLayout(t *testing.T) {
	f := setupCertificateService()
	f.eligible("u1", "c1")

	doc, err := f.svc.DownloadCourseCertificate(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("下载应成功: %v", err)
	}
	if doc.ContentType != render.ContentTypePDF {
		t.Errorf("内容类型错误: %s", doc.ContentType)
	}

	l := f.renderer.last()
	if len(l.Items) != 1 || l.Items[0].Text != "Ada - Systems 101" {
		t.Errorf("占位符替换结果错误: %+v", l.Items)
	}
	if l.QR == nil || !strings.HasPrefix(l.QR.Text, "https://lms.example.com/certificate/verify/CERT-") {
		t.Errorf("二维码内容应为校验地址: %+v", l.QR)
	}
	if !strings.HasPrefix(doc.Filename, "certificate-CERT-") {
		t.Errorf("文件名错误: %s", doc.Filename)
	}
}

func TestDownloadCourse_RenderFailure(t *testing.T) {
	f := setupCertificateService()
	f.eligible("u1", "c1")
	f.renderer.err = errors.New("boom")

	_, err := f.svc.DownloadCourseCertificate(context.Background(), "u1", "c1")
	if !errors.Is(err, ErrRenderFailed) {
		t.Errorf("期望 ErrRenderFailed，实际 %v", err)
	}
}

// ── 测验证书 ──

func (f *certFixture) seedQuiz(quizID string) {
	f.repos.seedUser("u1", "Ada")
	f.repos.quiz.quizzes[quizID] = &model.Quiz{
		QuizID: quizID,
		Title:  "Final Exam",
		Course: &model.Course{CourseID: "c1", Title: "Systems 101"},
	}
}

func (f *certFixture) addAttempt(id, quizID, status string, completedAt *time.Time) {
	f.repos.quiz.attempts = append(f.repos.quiz.attempts, model.QuizAttempt{
		AttemptID: id, UserID: "u1", QuizID: quizID, Status: status, CompletedAt: completedAt,
	})
}

func TestIssueQuiz_LatestCompletedAttempt(t *testing.T) {
	f := setupCertificateService()
	f.seedQuiz("q1")
	f.repos.seedTemplate("tpl-quiz", model.TemplateTypeQuizCompletion, time.Now())

	older := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)
	f.addAttempt("a-old", "q1", model.AttemptCompleted, &older)
	f.addAttempt("a-new", "q1", model.AttemptCompleted, &newer)
	f.addAttempt("a-open", "q1", model.AttemptInProgress, nil)

	cert, err := f.svc.IssueOrGetQuizCertificate(context.Background(), "u1", "q1")
	if err != nil {
		t.Fatalf("签发应成功: %v", err)
	}
	if cert.UserQuizAttemptID != "a-new" {
		t.Errorf("应绑定最近一次已完成作答，实际 %s", cert.UserQuizAttemptID)
	}
	if !strings.HasPrefix(cert.SerialNumber, QuizSerialPrefix) {
		t.Errorf("编号前缀错误: %s", cert.SerialNumber)
	}

	again, _ := f.svc.IssueOrGetQuizCertificate(context.Background(), "u1", "q1")
	if again.SerialNumber != cert.SerialNumber {
		t.Error("同一作答应返回同一证书")
	}
}

func TestIssueQuiz_NewAttemptGetsNewCertificate(t *testing.T) {
	f := setupCertificateService()
	f.seedQuiz("q1")
	f.repos.seedTemplate("tpl-quiz", model.TemplateTypeQuizCompletion, time.Now())

	first := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	f.addAttempt("a1", "q1", model.AttemptCompleted, &first)
	c1, _ := f.svc.IssueOrGetQuizCertificate(context.Background(), "u1", "q1")

	second := first.Add(24 * time.Hour)
	f.addAttempt("a2", "q1", model.AttemptCompleted, &second)
	c2, _ := f.svc.IssueOrGetQuizCertificate(context.Background(), "u1", "q1")

	if c1.SerialNumber == c2.SerialNumber {
		t.Error("新的已完成作答应签发新证书")
	}
}

func TestIssueQuiz_Errors(t *testing.T) {
	f := setupCertificateService()

	if _, err := f.svc.IssueOrGetQuizCertificate(context.Background(), "u1", "missing"); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("期望 ErrQuizNotFound，实际 %v", err)
	}

	f.seedQuiz("q1")
	if _, err := f.svc.IssueOrGetQuizCertificate(context.Background(), "u1", "q1"); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("期望 ErrAttemptNotFound，实际 %v", err)
	}

	f.addAttempt("a1", "q1", model.AttemptInProgress, nil)
	if _, err := f.svc.IssueOrGetQuizCertificate(context.Background(), "u1", "q1"); !errors.Is(err, ErrQuizNotCompleted) {
		t.Errorf("期望 ErrQuizNotCompleted，实际 %v", err)
	}

	done := time.Now()
	f.addAttempt("a2", "q1", model.AttemptCompleted, &done)
	if _, err := f.svc.IssueOrGetQuizCertificate(context.Background(), "u1", "q1"); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("期望 ErrNoTemplate，实际 %v", err)
	}
}

func TestIssueQuiz_FallsBackToCourseTemplate(t *testing.T) {
	f := setupCertificateService()
	f.seedQuiz("q1")
	f.repos.seedTemplate("tpl-course", model.TemplateTypeCourseCompletion, time.Now())
	done := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.addAttempt("a1", "q1", model.AttemptCompleted, &done)

	if _, err := f.svc.DownloadQuizCertificate(context.Background(), "u1", "q1"); err != nil {
		t.Fatalf("应回退到课程证书模板: %v", err)
	}
	if got := f.renderer.last().Items[0].Text; got != "Ada - Systems 101" {
		t.Errorf("占位符替换结果错误: %s", got)
	}
}

// ── 公开校验 ──

func TestVerify_KnownCourseCertificate(t *testing.T) {
	f := setupCertificateService()
	f.repos.cert.seed(&model.Certificate{
		UserID: "u1", CourseID: "c1", SerialNumber: "CERT-0123456789ABCDEF",
		IssuedAt: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		User:     &model.User{Name: "Ada"},
		Course:   &model.Course{Title: "Systems 101"},
	})

	resp, err := f.svc.VerifyBySerial(context.Background(), "CERT-0123456789ABCDEF")
	if err != nil {
		t.Fatalf("校验不应出错: %v", err)
	}
	if !resp.Found || resp.Certificate.StudentName != "Ada" || resp.Certificate.CourseTitle != "Systems 101" {
		t.Errorf("校验结果错误: %+v", resp)
	}
	if resp.Certificate.IssuedDate != "March 05, 2026" || resp.Certificate.Kind != "course" {
		t.Errorf("日期或类型错误: %+v", resp.Certificate)
	}
}

func TestVerify_QuizCertificate(t *testing.T) {
	f := setupCertificateService()
	f.repos.quizCert.seed(&model.QuizCertificate{
		UserID: "u1", QuizID: "q1", UserQuizAttemptID: "a1", SerialNumber: "QCERT-0123456789ABCDEF",
		User: &model.User{Name: "Ada"},
		Quiz: &model.Quiz{Title: "Final Exam", Course: &model.Course{Title: "Systems 101"}},
	})

	resp, _ := f.svc.VerifyBySerial(context.Background(), "QCERT-0123456789ABCDEF")
	if !resp.Found || resp.Certificate.Kind != "quiz" || resp.Certificate.QuizTitle != "Final Exam" {
		t.Errorf("测验证书校验结果错误: %+v", resp)
	}
}

func TestVerify_UnknownSerial(t *testing.T) {
	f := setupCertificateService()

	for _, serial := range []string{"CERT-DOESNOTEXIST0000", "", "   "} {
		resp, err := f.svc.VerifyBySerial(context.Background(), serial)
		if err != nil {
			t.Fatalf("未找到不应视为错误: %v", err)
		}
		if resp.Found {
			t.Errorf("%q 不应找到证书", serial)
		}
	}
	if f.cache.sets != 0 {
		t.Error("未找到的结果不应写入缓存")
	}
}

func TestVerify_CaseSensitive(t *testing.T) {
	f := setupCertificateService()
	f.repos.cert.seed(&model.Certificate{SerialNumber: "CERT-0123456789ABCDEF"})

	resp, _ := f.svc.VerifyBySerial(context.Background(), "cert-0123456789abcdef")
	if resp.Found {
		t.Error("编号匹配应区分大小写")
	}
}

func TestVerify_CacheHit(t *testing.T) {
	f := setupCertificateService()
	f.cache.items[verifyCachePrefix+"CERT-CACHED0000000000"], _ = json.Marshal(&dto.VerifyResponse{
		Found:       true,
		Certificate: &dto.VerifiedCertificate{StudentName: "Cached", SerialNumber: "CERT-CACHED0000000000"},
	})

	resp, _ := f.svc.VerifyBySerial(context.Background(), "CERT-CACHED0000000000")
	if !resp.Found || resp.Certificate.StudentName != "Cached" {
		t.Errorf("应直接返回缓存结果: %+v", resp)
	}
}

func TestVerify_FoundResultIsCached(t *testing.T) {
	f := setupCertificateService()
	f.repos.cert.seed(&model.Certificate{SerialNumber: "CERT-0123456789ABCDEF", User: &model.User{Name: "Ada"}})

	_, _ = f.svc.VerifyBySerial(context.Background(), "CERT-0123456789ABCDEF")
	if f.cache.sets != 1 {
		t.Errorf("命中的结果应写入缓存，实际写入 %d 次", f.cache.sets)
	}
}

func TestVerify_WithoutCache(t *testing.T) {
	m := newMockRepos()
	logger := zap.NewNop()
	svc := NewCertificateService(testConfig(), m.aggregation,
		NewCompletionService(m.aggregation, logger), NewVideoProgressService(m.aggregation, logger),
		NewTemplateService(testConfig(), m.aggregation, &fakeRenderer{}, fakeResolver{}, logger),
		&fakeRenderer{}, fakeResolver{}, nil, logger)
	m.cert.seed(&model.Certificate{SerialNumber: "CERT-0123456789ABCDEF"})

	resp, err := svc.VerifyBySerial(context.Background(), "CERT-0123456789ABCDEF")
	if err != nil || !resp.Found {
		t.Errorf("未配置缓存时应直接查询: %+v %v", resp, err)
	}
}

// ── 查询 ──

func TestCheckCourseCertificate(t *testing.T) {
	f := setupCertificateService()
	f.eligible("u1", "c1")

	resp, err := f.svc.CheckCourseCertificate(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if resp.Exists || !resp.Completed {
		t.Errorf("签发前应为 exists=false completed=true: %+v", resp)
	}

	cert, _ := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1")
	resp, _ = f.svc.CheckCourseCertificate(context.Background(), "u1", "c1")
	if !resp.Exists || resp.Certificate.SerialNumber != cert.SerialNumber {
		t.Errorf("签发后应返回证书摘要: %+v", resp)
	}
	if resp.Certificate.CourseTitle != "Systems 101" {
		t.Errorf("课程标题错误: %s", resp.Certificate.CourseTitle)
	}
}

func TestCourseProgress(t *testing.T) {
	f := setupCertificateService()
	f.eligible("u1", "c1")
	f.repos.video.watched["u1:lec-c1"] = 300

	resp, err := f.svc.CourseProgress(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if !resp.Completed || resp.VideoProgressPercent != 50 || resp.EligibleForCertificate {
		t.Errorf("完成度明细错误: %+v", resp)
	}
	if resp.CurriculumItemsTotal != 3 || resp.AssignmentsRequired != 1 {
		t.Errorf("计数错误: %+v", resp)
	}

	if _, err := f.svc.CourseProgress(context.Background(), "u1", "missing"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际 %v", err)
	}
}

func TestListMine_Paginates(t *testing.T) {
	f := setupCertificateService()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		f.repos.cert.seed(&model.Certificate{
			UserID: "u1", CourseID: fmt.Sprintf("c%d", i),
			SerialNumber: fmt.Sprintf("CERT-%016d", i),
			IssuedAt:     base.Add(time.Duration(i) * time.Hour),
		})
	}

	req := &dto.ListCertificatesRequest{PaginationRequest: dto.PaginationRequest{Page: 1, PageSize: 2}}
	list, total, err := f.svc.ListMine(context.Background(), "u1", req)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if total != 3 || len(list) != 2 {
		t.Fatalf("期望 total=3 len=2，实际 %d/%d", total, len(list))
	}
	if list[0].SerialNumber != "CERT-0000000000000002" {
		t.Errorf("应按签发时间倒序，实际首条 %s", list[0].SerialNumber)
	}
	if list[0].VerifyURL != "https://lms.example.com/certificate/verify/CERT-0000000000000002" {
		t.Errorf("校验地址错误: %s", list[0].VerifyURL)
	}
}

// ── 模板查询经由 TemplateService ──

type recordingTemplates struct {
	TemplateService
	mu    sync.Mutex
	types []string
}

func (r *recordingTemplates) Active(ctx context.Context, templateType string) (*model.CertificateTemplate, error) {
	r.mu.Lock()
	r.types = append(r.types, templateType)
	r.mu.Unlock()
	return r.TemplateService.Active(ctx, templateType)
}

func TestIssue_ResolvesTemplatesThroughTemplateService(t *testing.T) {
	f := setupCertificateService()
	rec := &recordingTemplates{TemplateService: f.svc.templates}
	f.svc.templates = rec

	f.eligible("u1", "c1")
	if _, err := f.svc.IssueOrGetCourseCertificate(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("签发失败: %v", err)
	}

	f.seedQuiz("q1")
	done := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.addAttempt("a1", "q1", model.AttemptCompleted, &done)
	if _, err := f.svc.IssueOrGetQuizCertificate(context.Background(), "u1", "q1"); err != nil {
		t.Fatalf("测验证书签发失败: %v", err)
	}

	want := []string{
		model.TemplateTypeCourseCompletion,
		model.TemplateTypeQuizCompletion,
		model.TemplateTypeCourseCompletion,
	}
	if strings.Join(rec.types, ",") != strings.Join(want, ",") {
		t.Errorf("模板查询顺序错误: %v", rec.types)
	}
}

func TestVerify_PaddedSerialNotMatched(t *testing.T) {
	f := setupCertificateService()
	f.repos.cert.seed(&model.Certificate{SerialNumber: "CERT-0123456789ABCDEF"})

	for _, serial := range []string{" CERT-0123456789ABCDEF", "CERT-0123456789ABCDEF\n"} {
		resp, err := f.svc.VerifyBySerial(context.Background(), serial)
		if err != nil {
			t.Fatalf("未找到不应视为错误: %v", err)
		}
		if resp.Found {
			t.Errorf("%q 带空白的编号不应匹配", serial)
		}
	}
}

package render

import (
	"sort"
	"strings"
	"time"
)

// DateLayout 证书上完成日期的展示格式，例如 "March 05, 2026"
const DateLayout = "January 02, 2006"

// Data 渲染一张证书所需的业务数据
type Data struct {
	StudentName    string
	CourseTitle    string
	QuizTitle      string
	CompletionDate time.Time
	SerialNumber   string
	VerifyURL      string

	// 签名文字取自模板，BuildLayout 会自动填充
	SignatureText     string
	SignatureTitle    string
	SignatureSubtitle string
}

// Tokens 构建占位符替换表，方括号与双花括号两种写法并存
func Tokens(d Data) map[string]string {
	date := ""
	if !d.CompletionDate.IsZero() {
		date = d.CompletionDate.Format(DateLayout)
	}

	t := make(map[string]string, 24)
	set := func(value string, keys ...string) {
		for _, k := range keys {
			t[k] = value
		}
	}

	set(d.StudentName, "[Student Name]", "{{student_name}}")
	set(d.CourseTitle, "[Course Title]", "[Course Name]", "{{course_title}}", "{{course_name}}")
	set(d.QuizTitle, "[Quiz Title]", "{{quiz_title}}")
	set(date, "[Completion Date]", "[Date]", "{{completion_date}}")
	set(d.SerialNumber, "[Certificate Number]", "[Serial Number]", "{{certificate_number}}", "{{serial_number}}")
	set(d.SignatureText, "[Signature Text]", "{{signature_text}}")
	set(d.SignatureTitle, "[Signature Title]", "{{signature_title}}")
	set(d.SignatureSubtitle, "[Signature Subtitle]", "{{signature_subtitle}}")
	set(d.VerifyURL, "[Verify URL]", "{{verify_url}}")

	return t
}

// Substituter 一次扫描完成全部占位符替换，区分大小写；替换结果不会被再次展开
type Substituter struct {
	r *strings.Replacer
}

// NewSubstituter 由替换表构建 Substituter
func NewSubstituter(tokens map[string]string) *Substituter {
	keys := make([]string, 0, len(tokens))
	for k := range tokens {
		keys = append(keys, k)
	}
	// 较长的占位符优先匹配
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, tokens[k])
	}
	return &Substituter{r: strings.NewReplacer(pairs...)}
}

// Replace 替换 content 中出现的全部占位符
func (s *Substituter) Replace(content string) string {
	return s.r.Replace(content)
}

// Substitute 单次替换的便捷写法
func Substitute(content string, tokens map[string]string) string {
	return NewSubstituter(tokens).Replace(content)
}

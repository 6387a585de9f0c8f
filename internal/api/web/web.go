package web

import (
	"bytes"
	"embed"
	"html/template"

	"lms-certificate/backend/internal/dto"
)

//go:embed templates/*.html
var templateFS embed.FS

var verifyTmpl = template.Must(template.ParseFS(templateFS, "templates/verify.html"))

// VerifyView 校验页渲染数据
type VerifyView struct {
	Serial string
	Result *dto.VerifyResponse
}

// RenderVerify 渲染公开校验页；未找到时展示"未找到"视图
func RenderVerify(view VerifyView) ([]byte, error) {
	var buf bytes.Buffer
	if err := verifyTmpl.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

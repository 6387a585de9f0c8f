package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 证书模板类型
const (
	TemplateTypeCourseCompletion = "course_completion"
	TemplateTypeQuizCompletion   = "quiz_completion"
)

// 模板元素类型
const (
	ElementText      = "text"
	ElementImage     = "image"
	ElementSignature = "signature"
)

// ElementStyle 模板元素的类 CSS 样式，取值沿用前端编辑器的原始字符串（如 "24px"、"#333333"）
type ElementStyle struct {
	FontSize   string `json:"font_size,omitempty"`
	Color      string `json:"color,omitempty"`
	FontWeight string `json:"font_weight,omitempty"`
	FontFamily string `json:"font_family,omitempty"`
	FontStyle  string `json:"font_style,omitempty"`
	TextAlign  string `json:"text_align,omitempty"`
}

// TemplateElement 模板画布上的定位元素，坐标与尺寸单位均为像素
type TemplateElement struct {
	ID      string       `json:"id,omitempty"`
	Type    string       `json:"type"`
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
	Width   float64      `json:"width,omitempty"`
	Height  float64      `json:"height,omitempty"`
	Content string       `json:"content,omitempty"`
	Style   ElementStyle `json:"style"`
}

// CertificateTemplate 证书模板 — 对应 certificate_templates
// 由后台模板编辑器维护，本服务只读
type CertificateTemplate struct {
	TemplateID        string                               `gorm:"type:uuid;primaryKey"                                json:"template_id"`
	Name              string                               `gorm:"type:varchar(255);not null"                          json:"name"`
	Type              string                               `gorm:"type:varchar(32);not null;index:idx_template_active" json:"type"`
	Width             int                                  `gorm:"not null"                                            json:"width"`
	Height            int                                  `gorm:"not null"                                            json:"height"`
	BackgroundImage   string                               `gorm:"type:varchar(500)"                                   json:"background_image"`
	Elements          datatypes.JSONSlice[TemplateElement] `gorm:"type:json"                                           json:"elements"`
	SignatureImage    string                               `gorm:"type:varchar(500)"                                   json:"signature_image"`
	SignatureText     string                               `gorm:"type:varchar(255)"                                   json:"signature_text"`
	SignatureTitle    string                               `gorm:"type:varchar(255)"                                   json:"signature_title"`
	SignatureSubtitle string                               `gorm:"type:varchar(255)"                                   json:"signature_subtitle"`
	IsActive          bool                                 `gorm:"not null;index:idx_template_active"                  json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (CertificateTemplate) TableName() string { return "certificate_templates" }

// BeforeCreate 生成主键
func (t *CertificateTemplate) BeforeCreate(_ *gorm.DB) error {
	ensureID(&t.TemplateID)
	return nil
}

// SignatureElement 返回模板中第一个签名类型元素
func (t *CertificateTemplate) SignatureElement() (TemplateElement, bool) {
	for _, el := range t.Elements {
		if el.Type == ElementSignature {
			return el, true
		}
	}
	return TemplateElement{}, false
}

package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

var (
	ErrInvalidCanvas     = errors.New("模板画布尺寸无效")
	ErrGlyphsUnsupported = errors.New("内置字体无法显示部分字符，需配置 certificate.font_path")
)

const (
	ContentTypePDF = "application/pdf"
	ContentTypePNG = "image/png"

	utf8FontFamily = "certfont"
)

// Document 渲染产物
// Warnings 记录降级项（素材缺失、二维码生成失败等），文档仍然有效
type Document struct {
	Bytes       []byte
	Filename    string
	ContentType string
	Warnings    []string
}

// PDFRenderer 将版面输出为单页 PDF
type PDFRenderer struct {
	assets   *AssetLoader
	fontData []byte
	logger   *zap.Logger
}

// NewPDFRenderer 创建 PDF 渲染器
// fontPath 指向 TTF 字体时使用该字体输出 UTF-8 文本，否则使用 PDF 内置字体
func NewPDFRenderer(assets *AssetLoader, fontPath string, logger *zap.Logger) (*PDFRenderer, error) {
	r := &PDFRenderer{assets: assets, logger: logger}
	if fontPath != "" {
		data, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("读取证书字体失败: %w", err)
		}
		r.fontData = data
	}
	return r, nil
}

// Render 按版面生成 PDF
func (r *PDFRenderer) Render(ctx context.Context, l Layout) (*Document, error) {
	if l.CanvasW <= 0 || l.CanvasH <= 0 {
		return nil, ErrInvalidCanvas
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: l.PageW, Ht: l.PageH},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetCellMargin(0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("lms-certificate", true)
	if l.Filename != "" {
		pdf.SetTitle(strings.TrimSuffix(l.Filename, ".pdf"), true)
	}

	s := &pdfSession{
		ctx:    ctx,
		pdf:    pdf,
		r:      r,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		scaleX: l.PageW / l.CanvasW,
		scaleY: l.PageH / l.CanvasH,
	}
	s.loadUTF8Font()

	pdf.AddPage()

	if l.Background != nil {
		s.drawImage(l.Background, true, "background")
	}
	for i := range l.Items {
		item := &l.Items[i]
		switch item.Kind {
		case ItemImage:
			s.drawImage(item, false, "element")
		default:
			s.drawText(item)
		}
	}
	if l.Signature != nil {
		s.drawImage(l.Signature, false, "signature")
	}
	if l.QR != nil {
		s.drawQR(l.QR)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("生成 PDF 失败: %w", err)
	}

	return &Document{
		Bytes:       buf.Bytes(),
		Filename:    l.Filename,
		ContentType: ContentTypePDF,
		Warnings:    s.warnings,
	}, nil
}

// pdfSession 单次渲染的可变状态
type pdfSession struct {
	ctx      context.Context
	pdf      *fpdf.Fpdf
	r        *PDFRenderer
	tr       func(string) string
	utf8     bool
	seq      int
	warnings []string

	scaleX, scaleY float64
}

func (s *pdfSession) x(px float64) float64 { return px * s.scaleX }
func (s *pdfSession) y(px float64) float64 { return px * s.scaleY }

func (s *pdfSession) warn(what, src string, err error) {
	msg := fmt.Sprintf("%s(%s): %v", what, src, err)
	s.warnings = append(s.warnings, msg)
	s.r.logger.Warn("证书渲染降级",
		zap.String("item", what),
		zap.String("src", src),
		zap.Error(err),
	)
}

func (s *pdfSession) loadUTF8Font() {
	if len(s.r.fontData) == 0 {
		return
	}
	for _, style := range []string{"", "B", "I", "BI"} {
		s.pdf.AddUTF8FontFromBytes(utf8FontFamily, style, s.r.fontData)
	}
	if !s.pdf.Ok() {
		s.warn("font", utf8FontFamily, s.pdf.Error())
		s.pdf.ClearError()
		return
	}
	s.utf8 = true
}

func (s *pdfSession) drawImage(item *Item, cover bool, what string) {
	asset, err := s.r.assets.Load(s.ctx, item.Src)
	if err != nil {
		s.warn(what, item.Src, err)
		return
	}
	s.placeImage(asset, item.Box, cover, what, item.Src)
}

func (s *pdfSession) placeImage(asset *Asset, box Box, cover bool, what, src string) {
	s.seq++
	name := fmt.Sprintf("%s-%d", what, s.seq)
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}

	s.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(asset.PNG))
	if !s.pdf.Ok() {
		err := s.pdf.Error()
		s.pdf.ClearError()
		s.warn(what, src, err)
		return
	}

	iw, ih := float64(asset.Width), float64(asset.Height)
	if cover {
		dst := coverRect(iw, ih, box)
		s.pdf.ClipRect(s.x(box.X), s.y(box.Y), s.x(box.W), s.y(box.H), false)
		s.pdf.ImageOptions(name, s.x(dst.X), s.y(dst.Y), s.x(dst.W), s.y(dst.H), false, opts, 0, "")
		s.pdf.ClipEnd()
		return
	}

	dst := containRect(iw, ih, box)
	s.pdf.ImageOptions(name, s.x(dst.X), s.y(dst.Y), s.x(dst.W), s.y(dst.H), false, opts, 0, "")
}

func (s *pdfSession) drawText(item *Item) {
	if strings.TrimSpace(item.Text) == "" {
		return
	}

	style := ""
	if isBold(item.Style) {
		style += "B"
	}
	if isItalic(item.Style) {
		style += "I"
	}

	pt := pxToPt(fontSizePx(item.Style))
	family, text := utf8FontFamily, item.Text
	if !s.utf8 {
		family, text = coreFontFamily(item.Style.FontFamily), s.tr(item.Text)
		if s.lossy(item.Text) {
			s.warn("font", item.Text, ErrGlyphsUnsupported)
		}
	}
	s.pdf.SetFont(family, style, pt)

	c := parseColor(item.Style.Color)
	s.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))

	// 行高取字号的 1.2 倍（磅 → 毫米）
	lineHeight := pt * 25.4 / 72 * 1.2
	s.pdf.SetXY(s.x(item.Box.X), s.y(item.Box.Y))
	s.pdf.MultiCell(s.x(item.Box.W), lineHeight, text, "", textAlign(item.Style), false)
}

// lossy 判断文本是否含有内置字体编码（cp1252）之外的字符，这类字符会被替换为 "."
func (s *pdfSession) lossy(text string) bool {
	for _, r := range text {
		if r < utf8.RuneSelf {
			continue
		}
		if s.tr(string(r)) == "." {
			return true
		}
	}
	return false
}

func (s *pdfSession) drawQR(item *Item) {
	raw, err := QRCodePNG(item.Text, qrPixels)
	if err != nil {
		s.warn("qrcode", item.Text, err)
		return
	}
	asset, err := decodeAsset(raw)
	if err != nil {
		s.warn("qrcode", item.Text, err)
		return
	}
	s.placeImage(asset, item.Box, false, "qrcode", item.Text)
}

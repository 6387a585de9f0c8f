package render

import (
	"math"
	"strings"

	"lms-certificate/backend/internal/model"
)

// MMPerPixel 96 DPI 下每像素对应的毫米数
const MMPerPixel = 0.264583

// 默认尺寸（像素）
const (
	defaultImageWidth  = 150
	defaultImageHeight = 60

	signatureOffsetX = 210
	signatureOffsetY = 140

	qrSize    = 150
	qrOffsetX = 180
	qrOffsetY = 180
)

// ItemKind 版面条目类型
type ItemKind string

const (
	ItemText  ItemKind = "text"
	ItemImage ItemKind = "image"
)

// Box 画布坐标系中的矩形，单位为像素
type Box struct {
	X, Y, W, H float64
}

// Item 版面中的一个绘制条目
type Item struct {
	Kind  ItemKind
	Box   Box
	Text  string // 已完成占位符替换
	Src   string // 模板中保存的原始图片引用
	URL   string // 解析后的可访问地址
	Style model.ElementStyle
}

// Layout 与输出格式无关的证书版面，按绘制顺序排列
type Layout struct {
	CanvasW, CanvasH float64 // 像素
	PageW, PageH     float64 // 毫米，保留两位小数

	Background *Item
	Items      []Item
	Signature  *Item
	QR         *Item // Text 为二维码内容（校验地址）

	Filename string
}

// URLResolver 将存储中的相对路径解析为公开地址
type URLResolver interface {
	PublicURL(key string) string
}

// PixelsToMM 像素换算为毫米并保留两位小数
func PixelsToMM(px float64) float64 {
	return math.Round(px*MMPerPixel*100) / 100
}

// ResolveSource 绝对 http(s) 地址原样返回，其余视为存储相对路径
func ResolveSource(src string, resolver URLResolver) string {
	s := strings.TrimSpace(src)
	if s == "" {
		return ""
	}
	if isAbsoluteURL(s) || resolver == nil {
		return s
	}
	return resolver.PublicURL(s)
}

func isAbsoluteURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// BuildLayout 根据模板与证书数据计算版面
// 绘制顺序：背景 → 模板元素（按保存顺序）→ 签名图 → 校验二维码
func BuildLayout(tpl *model.CertificateTemplate, data Data, resolver URLResolver) Layout {
	w, h := float64(tpl.Width), float64(tpl.Height)

	if data.SignatureText == "" {
		data.SignatureText = tpl.SignatureText
	}
	if data.SignatureTitle == "" {
		data.SignatureTitle = tpl.SignatureTitle
	}
	if data.SignatureSubtitle == "" {
		data.SignatureSubtitle = tpl.SignatureSubtitle
	}
	sub := NewSubstituter(Tokens(data))

	l := Layout{
		CanvasW:  w,
		CanvasH:  h,
		PageW:    PixelsToMM(w),
		PageH:    PixelsToMM(h),
		Filename: Filename(data.SerialNumber),
	}

	if src := strings.TrimSpace(tpl.BackgroundImage); src != "" {
		l.Background = &Item{
			Kind: ItemImage,
			Box:  Box{X: 0, Y: 0, W: w, H: h},
			Src:  src,
			URL:  ResolveSource(src, resolver),
		}
	}

	for _, el := range tpl.Elements {
		if el.Type == model.ElementImage {
			src := sub.Replace(strings.TrimSpace(el.Content))
			l.Items = append(l.Items, Item{
				Kind:  ItemImage,
				Box:   boxWithDefault(el, defaultImageWidth, defaultImageHeight),
				Src:   src,
				URL:   ResolveSource(src, resolver),
				Style: el.Style,
			})
			continue
		}

		width := el.Width
		if width <= 0 {
			width = math.Max(w-el.X, 1)
		}
		l.Items = append(l.Items, Item{
			Kind:  ItemText,
			Box:   Box{X: el.X, Y: el.Y, W: width, H: el.Height},
			Text:  sub.Replace(el.Content),
			Style: el.Style,
		})
	}

	if src := strings.TrimSpace(tpl.SignatureImage); src != "" {
		box := Box{X: w - signatureOffsetX, Y: h - signatureOffsetY, W: defaultImageWidth, H: defaultImageHeight}
		if el, ok := tpl.SignatureElement(); ok {
			box = boxWithDefault(el, defaultImageWidth, defaultImageHeight)
		}
		l.Signature = &Item{
			Kind: ItemImage,
			Box:  box,
			Src:  src,
			URL:  ResolveSource(src, resolver),
		}
	}

	if data.VerifyURL != "" {
		l.QR = &Item{
			Kind: ItemImage,
			Box:  Box{X: w - qrOffsetX, Y: h - qrOffsetY, W: qrSize, H: qrSize},
			Text: data.VerifyURL,
		}
	}

	return l
}

// Filename 建议的下载文件名
func Filename(serial string) string {
	if serial == "" {
		return "certificate.pdf"
	}
	return "certificate-" + serial + ".pdf"
}

func boxWithDefault(el model.TemplateElement, defW, defH float64) Box {
	b := Box{X: el.X, Y: el.Y, W: el.Width, H: el.Height}
	if b.W <= 0 {
		b.W = defW
	}
	if b.H <= 0 {
		b.H = defH
	}
	return b
}

// ── 图片适配 ──

// coverRect 等比缩放铺满 box，超出部分由调用方裁剪
func coverRect(iw, ih float64, box Box) Box {
	if iw <= 0 || ih <= 0 {
		return box
	}
	scale := math.Max(box.W/iw, box.H/ih)
	dw, dh := iw*scale, ih*scale
	return Box{X: box.X + (box.W-dw)/2, Y: box.Y + (box.H-dh)/2, W: dw, H: dh}
}

// containRect 等比缩放完整放入 box 并居中
func containRect(iw, ih float64, box Box) Box {
	if iw <= 0 || ih <= 0 {
		return box
	}
	scale := math.Min(box.W/iw, box.H/ih)
	dw, dh := iw*scale, ih*scale
	return Box{X: box.X + (box.W-dw)/2, Y: box.Y + (box.H-dh)/2, W: dw, H: dh}
}

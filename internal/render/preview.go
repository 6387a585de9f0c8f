package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// PreviewRenderer 按画布像素输出 PNG 预览，供模板维护人员核对版面
type PreviewRenderer struct {
	assets *AssetLoader
	font   *truetype.Font
	logger *zap.Logger
}

// NewPreviewRenderer 创建预览渲染器；fontPath 为空时使用内置点阵字体
func NewPreviewRenderer(assets *AssetLoader, fontPath string, logger *zap.Logger) (*PreviewRenderer, error) {
	r := &PreviewRenderer{assets: assets, logger: logger}
	if fontPath == "" {
		return r, nil
	}

	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("读取预览字体失败: %w", err)
	}
	parsed, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析 TTF 失败: %w", err)
	}
	r.font = parsed
	return r, nil
}

// Render 生成 PNG 预览
func (r *PreviewRenderer) Render(ctx context.Context, l Layout) (*Document, error) {
	if l.CanvasW <= 0 || l.CanvasH <= 0 {
		return nil, ErrInvalidCanvas
	}

	dc := gg.NewContext(int(l.CanvasW), int(l.CanvasH))
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// truetype 字形缓存不可并发使用，字体对象按次渲染创建
	faces := make(map[float64]font.Face)
	var warnings []string
	warn := func(what, src string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s(%s): %v", what, src, err))
		r.logger.Warn("证书预览降级", zap.String("item", what), zap.String("src", src), zap.Error(err))
	}

	drawAsset := func(item *Item, cover bool, what string) {
		asset, err := r.assets.Load(ctx, item.Src)
		if err != nil {
			warn(what, item.Src, err)
			return
		}
		placeRaster(dc, asset.Image, item.Box, cover)
	}

	if l.Background != nil {
		// 画布边界即裁剪区域
		drawAsset(l.Background, true, "background")
	}
	for i := range l.Items {
		item := &l.Items[i]
		if item.Kind == ItemImage {
			drawAsset(item, false, "element")
			continue
		}
		r.drawText(dc, item, faces)
	}
	if l.Signature != nil {
		drawAsset(l.Signature, false, "signature")
	}
	if l.QR != nil {
		img, err := QRCodeImage(l.QR.Text, int(l.QR.Box.W))
		if err != nil {
			warn("qrcode", l.QR.Text, err)
		} else {
			placeRaster(dc, img, l.QR.Box, false)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("编码预览 PNG 失败: %w", err)
	}

	return &Document{
		Bytes:       buf.Bytes(),
		Filename:    strings.TrimSuffix(l.Filename, ".pdf") + ".png",
		ContentType: ContentTypePNG,
		Warnings:    warnings,
	}, nil
}

func (r *PreviewRenderer) drawText(dc *gg.Context, item *Item, faces map[float64]font.Face) {
	if strings.TrimSpace(item.Text) == "" {
		return
	}

	dc.SetFontFace(r.face(fontSizePx(item.Style), faces))
	dc.SetColor(parseColor(item.Style.Color))

	align := gg.AlignLeft
	switch textAlign(item.Style) {
	case "C":
		align = gg.AlignCenter
	case "R":
		align = gg.AlignRight
	}
	dc.DrawStringWrapped(item.Text, item.Box.X, item.Box.Y, 0, 0, item.Box.W, 1.2, align)
}

// face 按字号取字体；未配置 TTF 时所有字号共用点阵字体
func (r *PreviewRenderer) face(px float64, faces map[float64]font.Face) font.Face {
	if r.font == nil {
		return basicfont.Face7x13
	}

	if f, ok := faces[px]; ok {
		return f
	}
	f := truetype.NewFace(r.font, &truetype.Options{
		Size:    px,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	faces[px] = f
	return f
}

// placeRaster 缩放后绘制到画布
func placeRaster(dc *gg.Context, img image.Image, box Box, cover bool) {
	b := img.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())

	dst := containRect(iw, ih, box)
	if cover {
		dst = coverRect(iw, ih, box)
	}
	w, h := int(dst.W+0.5), int(dst.H+0.5)
	if w <= 0 || h <= 0 {
		return
	}

	scaled := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Over, nil)
	dc.DrawImage(scaled, int(dst.X+0.5), int(dst.Y+0.5))
}

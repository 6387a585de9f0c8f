package render

import (
	"encoding/hex"
	"image/color"
	"strconv"
	"strings"

	"lms-certificate/backend/internal/model"
)

const defaultFontSizePx = 16

// fontSizePx 解析 "24px" / "24" / "18pt"，无法解析时返回默认字号
func fontSizePx(s model.ElementStyle) float64 {
	v := strings.ToLower(strings.TrimSpace(s.FontSize))
	if v == "" {
		return defaultFontSizePx
	}
	factor := 1.0
	switch {
	case strings.HasSuffix(v, "px"):
		v = strings.TrimSuffix(v, "px")
	case strings.HasSuffix(v, "pt"):
		v = strings.TrimSuffix(v, "pt")
		factor = 4.0 / 3.0
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || n <= 0 {
		return defaultFontSizePx
	}
	return n * factor
}

// pxToPt CSS 像素换算为磅
func pxToPt(px float64) float64 { return px * 0.75 }

func isBold(s model.ElementStyle) bool {
	w := strings.ToLower(strings.TrimSpace(s.FontWeight))
	switch w {
	case "bold", "bolder":
		return true
	}
	n, err := strconv.Atoi(w)
	return err == nil && n >= 600
}

func isItalic(s model.ElementStyle) bool {
	v := strings.ToLower(strings.TrimSpace(s.FontStyle))
	return v == "italic" || v == "oblique"
}

// textAlign 返回 L / C / R / J
func textAlign(s model.ElementStyle) string {
	switch strings.ToLower(strings.TrimSpace(s.TextAlign)) {
	case "center":
		return "C"
	case "right", "end":
		return "R"
	case "justify":
		return "J"
	default:
		return "L"
	}
}

var namedColors = map[string]color.NRGBA{
	"black": {0, 0, 0, 255},
	"white": {255, 255, 255, 255},
	"red":   {255, 0, 0, 255},
	"green": {0, 128, 0, 255},
	"blue":  {0, 0, 255, 255},
	"gray":  {128, 128, 128, 255},
	"grey":  {128, 128, 128, 255},
	"gold":  {255, 215, 0, 255},
}

// parseColor 支持 #RGB、#RRGGBB 与常见颜色名，其余按黑色处理
func parseColor(s string) color.NRGBA {
	black := color.NRGBA{A: 255}
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return black
	}
	if c, ok := namedColors[v]; ok {
		return c
	}
	v = strings.TrimPrefix(v, "#")
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) != 6 {
		return black
	}
	raw, err := hex.DecodeString(v)
	if err != nil {
		return black
	}
	return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 255}
}

// coreFontFamily 将 CSS 字体族映射为 PDF 内置字体
func coreFontFamily(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "times"), strings.Contains(f, "georgia"), strings.Contains(f, "garamond"),
		strings.Contains(f, "serif") && !strings.Contains(f, "sans"):
		return "Times"
	case strings.Contains(f, "courier"), strings.Contains(f, "mono"):
		return "Courier"
	default:
		return "Helvetica"
	}
}

package render

import (
	"errors"
	"fmt"
	"image"

	qrcode "github.com/skip2/go-qrcode"
)

var ErrEmptyQRContent = errors.New("二维码内容为空")

// qrPixels 二维码位图边长，PDF 中再缩放到目标框
const qrPixels = 512

// QRCodePNG 将内容编码为二维码 PNG
func QRCodePNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyQRContent
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("生成二维码失败: %w", err)
	}
	return png, nil
}

// QRCodeImage 将内容编码为二维码图像
func QRCodeImage(content string, size int) (image.Image, error) {
	if content == "" {
		return nil, ErrEmptyQRContent
	}
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("生成二维码失败: %w", err)
	}
	return q.Image(size), nil
}

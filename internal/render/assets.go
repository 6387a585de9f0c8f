package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	// 注册解码器
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"lms-certificate/backend/pkg/storage"
)

var (
	ErrAssetTooLarge   = errors.New("素材超过大小限制")
	ErrAssetFetch      = errors.New("素材下载失败")
	ErrAssetUndecoded  = errors.New("素材无法解码为图片")
	ErrAssetNoLocation = errors.New("素材引用为空")
)

const (
	defaultAssetTimeout  = 10 * time.Second
	defaultMaxAssetBytes = 10 << 20
)

// Asset 已解码并规范化的图片素材
type Asset struct {
	Image  image.Image
	PNG    []byte // 8 位 NRGBA PNG，供 PDF 注册使用
	Width  int
	Height int
}

// AssetLoader 加载模板引用的图片：绝对地址走 HTTP，相对路径读对象存储
type AssetLoader struct {
	store    storage.Store
	http     *resty.Client
	maxBytes int64
	logger   *zap.Logger
}

// NewAssetLoader 创建素材加载器
func NewAssetLoader(store storage.Store, timeout time.Duration, maxBytes int64, logger *zap.Logger) *AssetLoader {
	if timeout <= 0 {
		timeout = defaultAssetTimeout
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxAssetBytes
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "image/*")
	return &AssetLoader{store: store, http: client, maxBytes: maxBytes, logger: logger}
}

// PublicURL 委托给对象存储，供 BuildLayout 解析相对路径
func (l *AssetLoader) PublicURL(key string) string {
	if l.store == nil {
		return key
	}
	return l.store.PublicURL(key)
}

// Load 读取并解码素材
func (l *AssetLoader) Load(ctx context.Context, src string) (*Asset, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, ErrAssetNoLocation
	}

	var raw []byte
	var err error
	if isAbsoluteURL(src) {
		raw, err = l.fetch(ctx, src)
	} else {
		raw, err = l.read(ctx, src)
	}
	if err != nil {
		return nil, err
	}

	return decodeAsset(raw)
}

// fetch 不让 resty 缓冲响应体，按上限读取原始流，超限即断开连接
func (l *AssetLoader) fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := l.http.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetFetch, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %s 返回 %d", ErrAssetFetch, url, resp.StatusCode())
	}
	if resp.RawResponse != nil && resp.RawResponse.ContentLength > l.maxBytes {
		return nil, ErrAssetTooLarge
	}
	return l.readLimited(body)
}

func (l *AssetLoader) read(ctx context.Context, key string) ([]byte, error) {
	if l.store == nil {
		return nil, fmt.Errorf("%w: 未配置对象存储", ErrAssetFetch)
	}
	rc, err := l.store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return l.readLimited(rc)
}

// readLimited 最多读取 maxBytes+1 字节，多出的一个字节用于判定超限
func (l *AssetLoader) readLimited(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetFetch, err)
	}
	if int64(len(raw)) > l.maxBytes {
		return nil, ErrAssetTooLarge
	}
	return raw, nil
}

// decodeAsset 解码任意已注册格式，并重新编码为 8 位 NRGBA PNG
// PDF 库不支持 16 位、隔行扫描等 PNG 变体以及 WebP，统一转换后再注册
func decodeAsset(raw []byte) (*Asset, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetUndecoded, err)
	}

	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, nrgba); err != nil {
		return nil, fmt.Errorf("素材重新编码失败: %w", err)
	}

	return &Asset{Image: nrgba, PNG: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

package util

import (
	"Parlor/internal/pkg/consts"
	"bytes"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// SniffContentType 读取前 512 字节判断真实类型，返回的 reader 包含完整内容
func SniffContentType(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return contentType, io.MultiReader(bytes.NewReader(head), r), nil
}

// MediaKind 按 MIME 得到粗粒度的媒体类型
func MediaKind(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, consts.MimePrefixImage+"/"):
		return "image"
	case strings.HasPrefix(mimeType, consts.MimePrefixVideo+"/"),
		strings.HasPrefix(mimeType, consts.MimePrefixAudio+"/"):
		return "video"
	default:
		return "file"
	}
}

// ObjectName 生成 YYYY/MM/DD/<uuid><ext> 形式的对象名
func ObjectName(now time.Time, filename, mimeType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return fmt.Sprintf("%s/%s%s", now.Format("2006/01/02"), uuid.NewString(), ext)
}

// DownsizeImage 宽度超过 maxWidth 时按比例缩放并重新编码
// 返回值 resized 为 false 时调用方应继续使用原始数据
func DownsizeImage(data []byte, mimeType string, maxWidth int) (out []byte, width, height int, resized bool, err error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, 0, false, err
	}
	bounds := img.Bounds()
	if bounds.Dx() <= maxWidth {
		return data, bounds.Dx(), bounds.Dy(), false, nil
	}

	format := imaging.JPEG
	if mimeType == "image/png" {
		format = imaging.PNG
	}
	var dst image.Image = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err = imaging.Encode(buf, dst, format, imaging.JPEGQuality(85)); err != nil {
		return nil, 0, 0, false, err
	}
	b := dst.Bounds()
	return buf.Bytes(), b.Dx(), b.Dy(), true, nil
}

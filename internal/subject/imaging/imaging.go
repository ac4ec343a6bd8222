// Package imaging resolves the subject photo for a submission: an uploaded
// file, or a base64 camera frame turned into a file.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/image/webp"

	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/requestcontext"
)

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEWebP = "image/webp"

	jpegQuality = 90
)

// Source tells where the photo came from.
type Source string

const (
	SourceUpload  Source = "upload"
	SourceCapture Source = "capture"
)

var (
	// ErrNoImage means neither an upload nor a capture was supplied.
	ErrNoImage = dErrors.New(dErrors.CodeInvalidInput, "no image provided")
	// ErrInvalidCapture means the capture string is not decodable base64 image data.
	ErrInvalidCapture = dErrors.New(dErrors.CodeBadRequest, "captured image could not be decoded")
)

// Upload is a file part received from the browser.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Image is the resolved photo attached to a submission.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
	Source      Source
}

func (i *Image) Size() int64 { return int64(len(i.Data)) }

// IsAllowedType reports whether the backend accepts the image format.
func (i *Image) IsAllowedType() bool {
	return i.ContentType == MIMEJPEG || i.ContentType == MIMEPNG
}

// Resolve picks the photo for a submission. An upload always wins over a
// capture. A nil result with ErrNoImage means there is nothing to attach.
func Resolve(ctx context.Context, upload *Upload, capture string) (*Image, error) {
	if upload != nil && len(upload.Data) > 0 {
		return fromUpload(upload), nil
	}
	if strings.TrimSpace(capture) != "" {
		return FromCapture(ctx, capture)
	}
	return nil, ErrNoImage
}

func fromUpload(u *Upload) *Image {
	ct := http.DetectContentType(u.Data)
	if ct == "application/octet-stream" && u.ContentType != "" {
		ct = u.ContentType
	}
	name := filepath.Base(u.Filename)
	if name == "." || name == "/" || name == "" {
		name = "upload" + extension(ct)
	}
	return &Image{Filename: name, ContentType: ct, Data: u.Data, Source: SourceUpload}
}

// FromCapture decodes a base64 camera frame, with or without a data-URL
// prefix. WebP frames are transcoded to JPEG. The synthesized file name is
// capture_<unix-millis> at the request time.
func FromCapture(ctx context.Context, capture string) (*Image, error) {
	data, err := decodeBase64(capture)
	if err != nil || len(data) == 0 {
		return nil, ErrInvalidCapture
	}

	ct := http.DetectContentType(data)
	if ct == MIMEWebP {
		data, err = webpToJPEG(data)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "captured image could not be converted")
		}
		ct = MIMEJPEG
	}

	name := fmt.Sprintf("capture_%d%s", requestcontext.Now(ctx).UnixMilli(), extension(ct))
	return &Image{Filename: name, ContentType: ct, Data: data, Source: SourceCapture}, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if _, payload, ok := strings.Cut(s, ","); ok {
			s = payload
		}
	}
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' {
			return -1
		}
		return r
	}, s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func webpToJPEG(data []byte) ([]byte, error) {
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode webp: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func extension(contentType string) string {
	if contentType == MIMEPNG {
		return ".png"
	}
	return ".jpg"
}

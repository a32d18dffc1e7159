package importer

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind 是支持导入的文件类别。
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindDOCX  Kind = "docx"
	KindImage Kind = "image"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ErrUnsupportedType 表示不支持的文件类型。
var ErrUnsupportedType = errors.New("unsupported file type")

// MsgInvalidType 是返回给用户的提示。
const MsgInvalidType = "Invalid file type. Please upload PDF, DOCX, PNG, or JPEG"

// DetectKind 优先按声明的 Content-Type 判断，缺失或为通用类型时按文件头嗅探。
func DetectKind(contentType string, data []byte) (Kind, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "application/pdf":
		return KindPDF, nil
	case docxContentType:
		return KindDOCX, nil
	case "image/png", "image/jpeg", "image/jpg":
		return KindImage, nil
	case "", "application/octet-stream", "application/zip":
		return sniff(data)
	default:
		return "", fmt.Errorf("%w (got %s)", ErrUnsupportedType, ct)
	}
}

func sniff(data []byte) (Kind, error) {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return KindPDF, nil
	case bytes.HasPrefix(data, []byte("PK\x03\x04")) && bytes.Contains(data, []byte("word/document.xml")):
		return KindDOCX, nil
	}
	switch http.DetectContentType(data) {
	case "image/png", "image/jpeg":
		return KindImage, nil
	}
	return "", ErrUnsupportedType
}

package storage

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const maxFileNameLen = 120

// ExportKey 返回导出 PDF 的对象键，每次导出生成新对象。
func ExportKey(resumeID uint) string {
	return fmt.Sprintf("exports/%d/%s.pdf", resumeID, uuid.NewString())
}

// UploadKey 返回导入原件的对象键：uploads/<uuid>/<文件名>。
func UploadKey(fileName string) string {
	return fmt.Sprintf("uploads/%s/%s", uuid.NewString(), SanitizeFileName(fileName))
}

// SanitizeFileName 去掉路径部分与控制字符，空白替换为下划线。
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." || out == "/" {
		return "file"
	}
	if len(out) > maxFileNameLen {
		ext := path.Ext(out)
		if len(ext) > 16 {
			ext = ""
		}
		out = strings.ToValidUTF8(out[:maxFileNameLen-len(ext)], "") + ext
	}
	return out
}

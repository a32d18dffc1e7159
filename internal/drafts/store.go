// Package drafts 负责简历草稿的尽力而为持久化：自动保存、导入结果暂存与会话初始化。
package drafts

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// 草稿键。导入结果写入 UploadKey，编辑中的文档写入 DraftKey。
const (
	DraftKey  = "resume-draft"
	UploadKey = "resume_upload"
)

// ErrInvalidKey 表示键为空或包含非法字符。
var ErrInvalidKey = errors.New("invalid draft key")

// Store 是键值形式的草稿存储。Load 在键不存在时返回 found=false 且 err=nil。
type Store interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Remove(ctx context.Context, key string) error
}

// Namespaced 返回归属于 owner 的键，例如 "3f2a…:resume-draft"。
func Namespaced(owner, key string) string {
	if owner == "" {
		return key
	}
	return owner + ":" + key
}

// CheckKey 校验外部传入的键。
func CheckKey(key string) error {
	if key == "" || len(key) > 191 {
		return ErrInvalidKey
	}
	if strings.ContainsAny(key, " \t\r\n*?[]") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

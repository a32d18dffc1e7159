package storage

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

var notFoundCodes = map[string]bool{"nosuchkey": true, "notfound": true}

// IsNoSuchKey 判断对象是否不存在。经过网关时错误可能只剩文本，按消息兜底匹配。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && notFoundCodes[strings.ToLower(resp.Code)] {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nosuchkey") || strings.Contains(msg, "specified key does not exist")
}

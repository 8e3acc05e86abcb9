package stores

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"WildVoice/pkg/errors"
	"WildVoice/pkg/util"
)

// ErrNotFound 对象不存在
var ErrNotFound = errors.New("object not found")

// PutOptions 上传对象的元数据
type PutOptions struct {
	ContentType  string
	CacheControl string
	Metadata     map[string]string
}

// Store 对象存储接口。Put 成功后返回对外可访问的 URL。
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, opts PutOptions) (string, error)
	Read(ctx context.Context, key string) (io.ReadCloser, int64, string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// ObjectKey 生成防碰撞的对象键：folder/<unix>_<随机后缀>.<ext>。
// 时间戳加随机后缀保证并发上传不会争用同一个键。
func ObjectKey(folder, filename string) string {
	ext := "bin"
	if i := strings.LastIndexByte(filename, '.'); i >= 0 && i < len(filename)-1 {
		ext = strings.ToLower(filename[i+1:])
	}
	return fmt.Sprintf("%s/%d_%s.%s", folder, time.Now().Unix(), util.RandomString(6), ext)
}

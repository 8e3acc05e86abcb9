package util

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// LoadEnv 根据运行环境加载 .env 文件（.env.development / .env.production）
func LoadEnv(env string) error {
	candidates := []string{".env." + env, ".env"}
	var lastErr error
	loaded := false
	for _, name := range candidates {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			lastErr = err
			continue
		}
		loaded = true
	}
	if !loaded {
		return lastErr
	}
	return nil
}

// GetEnv 获取环境变量
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvDefault 获取环境变量，缺省时返回默认值
func GetEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetIntEnv 获取整型环境变量，解析失败时返回 0
func GetIntEnv(key string) int64 {
	return cast.ToInt64(os.Getenv(key))
}

// GetBoolEnv 获取布尔环境变量（"1"/"true"/"yes" 视为 true）
func GetBoolEnv(key string) bool {
	return cast.ToBool(os.Getenv(key))
}

package util

import (
	"crypto/rand"
	"math/big"
)

const randomAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomString 生成指定长度的随机字符串（小写字母+数字）
func RandomString(n int) string {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(randomAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			buf[i] = randomAlphabet[0]
			continue
		}
		buf[i] = randomAlphabet[idx.Int64()]
	}
	return string(buf)
}

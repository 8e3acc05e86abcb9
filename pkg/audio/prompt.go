package audio

import (
	"fmt"
	"math/rand"
)

// ReadingPrompt 录音时展示给用户的朗读素材：随机数字、日期和电话号码，
// 用来覆盖更多发音。每次开始录音重新生成，不落库。
type ReadingPrompt struct {
	Numbers     []int  `json:"numbers"`
	Date        string `json:"date"`
	PhoneNumber string `json:"phoneNumber"`
}

// NewReadingPrompt generates a fresh prompt.
func NewReadingPrompt() *ReadingPrompt {
	numbers := make([]int, 5)
	for i := range numbers {
		numbers[i] = rand.Intn(100)
	}

	year := 2020 + rand.Intn(5)
	month := 1 + rand.Intn(12)
	day := 1 + rand.Intn(28) // 1-28，所有月份都安全

	phone := fmt.Sprintf("%d-%04d-%04d",
		130+rand.Intn(70), rand.Intn(10000), rand.Intn(10000))

	return &ReadingPrompt{
		Numbers:     numbers,
		Date:        fmt.Sprintf("%d-%02d-%02d", year, month, day),
		PhoneNumber: phone,
	}
}

// FormatDuration renders elapsed seconds as m:ss.
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Package whisper wraps the OpenAI Whisper transcription API.
package whisper

import (
	"bytes"
	"context"

	openai "github.com/sashabaranov/go-openai"

	"WildVoice/pkg/errors"
)

// Config 显式传入的客户端配置
type Config struct {
	APIKey  string
	BaseURL string
}

type Client struct {
	api *openai.Client
}

func NewClient(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{api: openai.NewClientWithConfig(clientCfg)}
}

// Transcription 转写结果
type Transcription struct {
	Text            string
	DurationSeconds float64
}

// Transcribe sends audio bytes to Whisper and returns the transcript.
// An empty transcript in a success payload fails closed.
func (c *Client) Transcribe(ctx context.Context, data []byte, filename string) (Transcription, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(data),
		FilePath: filename,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		// 让调用方能把超时和服务商错误区分开
		if ctx.Err() != nil {
			return Transcription{}, ctx.Err()
		}
		return Transcription{}, errors.WrapCode(errors.CodeProvider, err, "transcription request failed")
	}
	if resp.Text == "" {
		return Transcription{}, errors.WithCode(errors.CodeProvider, "transcription response missing text")
	}
	return Transcription{
		Text:            resp.Text,
		DurationSeconds: resp.Duration,
	}, nil
}

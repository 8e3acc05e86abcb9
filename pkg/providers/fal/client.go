// Package fal implements the HTTP client for the FAL minimax voice APIs
// (voice cloning and speech synthesis).
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"WildVoice/pkg/errors"
)

const (
	defaultBaseURL = "https://fal.run"

	cloneEndpoint  = "/fal-ai/minimax/voice-clone"
	speechEndpoint = "/fal-ai/minimax/speech-02-hd"
)

// Config 显式传入的客户端配置，不修改任何全局状态，
// 并发请求之间不会串用凭证。
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// SpeechRequest 语音合成参数
type SpeechRequest struct {
	Text    string
	VoiceID string
	Speed   float64
	Vol     float64
	Pitch   int
	Emotion string
}

type cloneResponse struct {
	CustomVoiceID string `json:"custom_voice_id"`
	Data          struct {
		CustomVoiceID string `json:"custom_voice_id"`
	} `json:"data"`
}

type speechResponse struct {
	Audio struct {
		URL string `json:"url"`
	} `json:"audio"`
}

type errorResponse struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// CloneVoice submits a fetchable audio URL and returns the provider-issued
// voice id. A success payload missing the id fails closed.
func (c *Client) CloneVoice(ctx context.Context, audioURL string) (string, error) {
	body, err := c.post(ctx, cloneEndpoint, map[string]any{"audio_url": audioURL})
	if err != nil {
		return "", err
	}

	var resp cloneResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", errors.WrapCode(errors.CodeProvider, err, "malformed voice clone response")
	}
	voiceID := resp.CustomVoiceID
	if voiceID == "" {
		voiceID = resp.Data.CustomVoiceID
	}
	if voiceID == "" {
		return "", errors.WithCode(errors.CodeProvider, "Failed to extract voice ID from response")
	}
	return voiceID, nil
}

// Synthesize generates speech and returns the raw MP3 bytes.
func (c *Client) Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error) {
	payload := map[string]any{
		"text": req.Text,
		"voice_setting": map[string]any{
			"voice_id": req.VoiceID,
			"speed":    req.Speed,
			"vol":      req.Vol,
			"pitch":    req.Pitch,
		},
	}
	if req.Emotion != "" {
		payload["emotion"] = req.Emotion
	}

	body, err := c.post(ctx, speechEndpoint, payload)
	if err != nil {
		return nil, err
	}

	var resp speechResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.WrapCode(errors.CodeProvider, err, "malformed speech response")
	}
	if resp.Audio.URL == "" {
		return nil, errors.WithCode(errors.CodeProvider, "speech response missing audio url")
	}
	return c.fetchAudio(ctx, resp.Audio.URL)
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Key "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WrapCode(errors.CodeProvider, err, "voice service unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapCode(errors.CodeProvider, err, "failed to read provider response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 尽量透传服务商给出的错误信息
		var e errorResponse
		msg := fmt.Sprintf("provider returned status %d", resp.StatusCode)
		if json.Unmarshal(body, &e) == nil {
			if e.Detail != "" {
				msg = e.Detail
			} else if e.Message != "" {
				msg = e.Message
			}
		}
		return nil, errors.WithCode(errors.CodeProvider, msg)
	}
	return body, nil
}

func (c *Client) fetchAudio(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WrapCode(errors.CodeProvider, err, "failed to download synthesized audio")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.WithCodef(errors.CodeProvider, "audio download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapCode(errors.CodeProvider, err, "failed to read synthesized audio")
	}
	if len(data) == 0 {
		return nil, errors.WithCode(errors.CodeProvider, "synthesized audio is empty")
	}
	return data, nil
}

package audio

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"WildVoice/pkg/errors"
)

// Policy 转换失败时的处理策略
type Policy int

const (
	// PolicyLenient 转换失败时原样返回输入（录音预览等一般流程）
	PolicyLenient Policy = iota
	// PolicyStrict 转换失败即终止提交（下游服务强制要求 MP3/FLAC 的流程）
	PolicyStrict
)

// Converter transcodes arbitrary audio bytes into MP3.
type Converter interface {
	ToMP3(ctx context.Context, data []byte) ([]byte, error)
}

// FFmpegConverter shells out to ffmpeg with libmp3lame.
type FFmpegConverter struct {
	path string
}

// NewFFmpegConverter verifies the transcoder binary up front so conversion
// requests never fail on a missing encoder.
func NewFFmpegConverter(path string) (*FFmpegConverter, error) {
	if path == "" {
		path = "ffmpeg"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, errors.Wrapf(err, "ffmpeg not found at %q", path)
	}
	return &FFmpegConverter{path: resolved}, nil
}

// ToMP3 pipes the input through ffmpeg. 44.1kHz / 192kbps，与线上转换脚本
// 参数保持一致。
func (c *FFmpegConverter) ToMP3(ctx context.Context, data []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.path,
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-acodec", "libmp3lame",
		"-ar", "44100",
		"-b:a", "192k",
		"-f", "mp3",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(data)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "ffmpeg conversion failed: %s",
			strings.TrimSpace(stderr.String()))
	}
	if out.Len() == 0 {
		return nil, errors.New("MP3 conversion failed: no output")
	}
	return out.Bytes(), nil
}

// Normalizer converts artifacts into the single container the downstream
// voice service accepts.
type Normalizer struct {
	conv Converter
}

func NewNormalizer(conv Converter) *Normalizer {
	return &Normalizer{conv: conv}
}

// Normalize returns an MP3-tagged artifact, or under PolicyLenient the
// original untouched artifact when conversion fails. The operation is
// all-or-nothing: a partially converted artifact is never returned.
func (n *Normalizer) Normalize(ctx context.Context, a *Artifact, policy Policy) (*Artifact, error) {
	if IsMP3(a) {
		return EnsureMP3Metadata(a), nil
	}

	if n.conv == nil {
		if policy == PolicyLenient {
			return a, nil
		}
		return nil, errors.WithCode(errors.CodeConversionFailed,
			"Audio conversion to MP3 failed. Please upload an MP3 file.")
	}

	out, err := n.conv.ToMP3(ctx, a.Data)
	if err != nil {
		if policy == PolicyLenient {
			return a, nil
		}
		return nil, errors.WrapCode(errors.CodeConversionFailed, err,
			"Audio conversion to MP3 failed. Please upload an MP3 file.")
	}

	return &Artifact{
		Name:       a.baseName() + ".mp3",
		MIME:       "audio/mpeg",
		Data:       out,
		Provenance: a.Provenance,
	}, nil
}

// IsMP3 reports whether the artifact is already MP3, by declared MIME,
// extension or sniffed header.
func IsMP3(a *Artifact) bool {
	switch strings.ToLower(a.MIME) {
	case "audio/mp3", "audio/mpeg":
		return true
	}
	if a.Ext() == ".mp3" {
		return true
	}
	return DetectType(a.Data) == "audio/mpeg"
}

// EnsureMP3Metadata 修正 MIME/扩展名错标的 MP3 文件，不做重编码。
func EnsureMP3Metadata(a *Artifact) *Artifact {
	mime := strings.ToLower(a.MIME)
	// audio/mp3 虽非标准但浏览器常用，视同已规范，不重建
	if (mime == "audio/mpeg" || mime == "audio/mp3") && a.Ext() == ".mp3" {
		return a
	}
	return &Artifact{
		Name:       a.baseName() + ".mp3",
		MIME:       "audio/mpeg",
		Data:       a.Data,
		Provenance: a.Provenance,
	}
}

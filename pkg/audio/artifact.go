package audio

import (
	"fmt"
	"strings"
	"time"
)

// Provenance 音频来源
type Provenance string

const (
	ProvenanceRecorded Provenance = "recorded" // 来自麦克风录制
	ProvenanceUploaded Provenance = "uploaded" // 用户直接上传
)

// Artifact 一段自包含的音频数据及其声明的媒体类型
type Artifact struct {
	Name       string
	MIME       string
	Data       []byte
	Provenance Provenance
}

// Size returns the artifact length in bytes
func (a *Artifact) Size() int64 {
	return int64(len(a.Data))
}

// Ext returns the lowercased filename extension including the dot
func (a *Artifact) Ext() string {
	i := strings.LastIndexByte(a.Name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(a.Name[i:])
}

// baseName strips the extension from the artifact name
func (a *Artifact) baseName() string {
	i := strings.LastIndexByte(a.Name, '.')
	if i < 0 {
		return a.Name
	}
	return a.Name[:i]
}

// NewRecordedArtifact tags assembled recorder chunks with the capture
// container type
func NewRecordedArtifact(data []byte) *Artifact {
	return &Artifact{
		Name:       fmt.Sprintf("recording-%d.webm", time.Now().UnixMilli()),
		MIME:       "audio/webm",
		Data:       data,
		Provenance: ProvenanceRecorded,
	}
}

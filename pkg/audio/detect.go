package audio

// DetectType 通过文件头（Magic Number）判断音频容器类型。
// 识别不了时返回空字符串。
func DetectType(data []byte) string {
	if len(data) < 4 {
		return ""
	}

	// MP3: 帧同步头 0xFF Ex/Fx，或 ID3 标签
	if data[0] == 0xFF && data[1]&0xE0 == 0xE0 {
		return "audio/mpeg"
	}
	if data[0] == 'I' && data[1] == 'D' && data[2] == '3' {
		return "audio/mpeg"
	}

	// WAV: RIFF
	if data[0] == 'R' && data[1] == 'I' && data[2] == 'F' && data[3] == 'F' {
		return "audio/wav"
	}

	// WebM/Matroska: EBML 头
	if data[0] == 0x1A && data[1] == 0x45 && data[2] == 0xDF && data[3] == 0xA3 {
		return "audio/webm"
	}

	// OGG
	if data[0] == 'O' && data[1] == 'g' && data[2] == 'g' && data[3] == 'S' {
		return "audio/ogg"
	}

	// FLAC
	if data[0] == 'f' && data[1] == 'L' && data[2] == 'a' && data[3] == 'C' {
		return "audio/flac"
	}

	return ""
}

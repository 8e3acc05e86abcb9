package audio

import "testing"

func TestDetectType(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"MP3FrameSync", []byte{0xFF, 0xFB, 0x90, 0x00}, "audio/mpeg"},
		{"MP3ID3Tag", []byte("ID3\x04\x00"), "audio/mpeg"},
		{"WAV", []byte("RIFF\x24\x08\x00\x00WAVE"), "audio/wav"},
		{"WebM", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x01}, "audio/webm"},
		{"OGG", []byte("OggS\x00"), "audio/ogg"},
		{"FLAC", []byte("fLaC\x00"), "audio/flac"},
		{"Unknown", []byte{0x00, 0x01, 0x02, 0x03}, ""},
		{"TooShort", []byte{0xFF}, ""},
		{"Empty", nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectType(tc.data); got != tc.want {
				t.Errorf("DetectType(%v) = %q, want %q", tc.data, got, tc.want)
			}
		})
	}
}

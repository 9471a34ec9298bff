package media

import "bytes"

// SniffExt guesses the container of an audio stream from its first bytes and
// returns the matching extension, or "" when unknown.
func SniffExt(head []byte) string {
	switch {
	case len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return ".wav"
	case bytes.HasPrefix(head, []byte("fLaC")):
		return ".flac"
	case bytes.HasPrefix(head, []byte("OggS")):
		return ".ogg"
	case bytes.HasPrefix(head, []byte("ID3")):
		return ".mp3"
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return ".mp3"
	}
	return ""
}

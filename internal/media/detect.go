package media

import "strings"

// MediaType is the media-library classification of a file.
type MediaType int

const (
	TypeFile MediaType = iota
	TypeImage
	TypeVideo
	TypeAudio
)

func (t MediaType) String() string {
	switch t {
	case TypeImage:
		return "image"
	case TypeVideo:
		return "video"
	case TypeAudio:
		return "audio"
	default:
		return "file"
	}
}

// ParseMediaType is the inverse of String. Unknown names map to TypeFile.
func ParseMediaType(s string) MediaType {
	switch s {
	case "image":
		return TypeImage
	case "video":
		return TypeVideo
	case "audio":
		return TypeAudio
	default:
		return TypeFile
	}
}

var audioExts = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
}

var videoExts = map[string]string{
	".mp4":  "video/mp4",
	".h264": "video/avc",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
}

var imageExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// IsSupportedExt returns true if the extension is a supported playable media format.
func IsSupportedExt(ext string) bool {
	_, ok := audioExts[strings.ToLower(ext)]
	return ok
}

// SupportedExtsList returns a human-readable list of supported playable media formats.
func SupportedExtsList() string {
	return ".mp3, .wav, .flac, .ogg"
}

// TypeForExt classifies an extension for the media library.
func TypeForExt(ext string) MediaType {
	ext = strings.ToLower(ext)
	if _, ok := audioExts[ext]; ok {
		return TypeAudio
	}
	if _, ok := videoExts[ext]; ok {
		return TypeVideo
	}
	if _, ok := imageExts[ext]; ok {
		return TypeImage
	}
	return TypeFile
}

// MimeForExt returns the MIME type for an extension, or application/octet-stream.
func MimeForExt(ext string) string {
	ext = strings.ToLower(ext)
	for _, m := range []map[string]string{audioExts, videoExts, imageExts} {
		if mime, ok := m[ext]; ok {
			return mime
		}
	}
	return "application/octet-stream"
}

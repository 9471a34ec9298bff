package player

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Metadata holds song information.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// ReadMetadata reads ID3v2 tags from r, falling back to the file name.
func ReadMetadata(r io.ReadSeeker, name string) Metadata {
	if strings.EqualFold(filepath.Ext(name), ".mp3") {
		if _, err := r.Seek(0, io.SeekStart); err == nil {
			tag, err := id3v2.ParseReader(r, id3v2.Options{Parse: true})
			if err == nil {
				m := Metadata{
					Title:  strings.TrimSpace(tag.Title()),
					Artist: strings.TrimSpace(tag.Artist()),
					Album:  strings.TrimSpace(tag.Album()),
				}
				if m.Title != "" {
					return m
				}
			}
		}
	}

	return Metadata{Title: TitleFromName(name)}
}

// TitleFromName is the file name without directory or extension.
func TitleFromName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

package medialib

import (
	"fmt"
	"time"

	"github.com/olivier-w/surfacetest/internal/media"
)

// FileKey names the columns a FetchOptions selection may refer to.
type FileKey string

const (
	DisplayName  FileKey = "display_name"
	RelativePath FileKey = "relative_path"
	MediaType    FileKey = "media_type"
	MimeType     FileKey = "mime_type"
	Size         FileKey = "size"
	DateAdded    FileKey = "date_added"
	Duration     FileKey = "duration"
	Title        FileKey = "title"
	Artist       FileKey = "artist"
	Album        FileKey = "album"
)

var fileKeys = map[FileKey]bool{
	DisplayName:  true,
	RelativePath: true,
	MediaType:    true,
	MimeType:     true,
	Size:         true,
	DateAdded:    true,
	Duration:     true,
	Title:        true,
	Artist:       true,
	Album:        true,
	"id":         true,
}

// FileAsset is one stored media record.
type FileAsset struct {
	ID           int64
	URI          string
	DisplayName  string
	RelativePath string
	MediaType    media.MediaType
	MimeType     string
	Size         int64
	DateAdded    time.Time
	// Duration in milliseconds; zero for non-audio assets.
	Duration int64
	Title    string
	Artist   string
	Album    string
}

// AssetURI is the datashare URI of an asset.
func AssetURI(t media.MediaType, id int64) string {
	return fmt.Sprintf("datashare:///media/%s/%d", t, id)
}

// FetchOptions filters GetFileAssets. Selections uses "<key> = ?" or
// "<key> LIKE ?" clauses joined by AND, with one SelectionArgs entry per
// placeholder. Order is "<key> ASC|DESC"; empty means by id.
type FetchOptions struct {
	Selections    string
	SelectionArgs []string
	Order         string
}

// FetchResult is the materialized result of a query.
type FetchResult struct {
	assets []FileAsset
}

// GetCount returns the number of matching assets.
func (r *FetchResult) GetCount() int {
	if r == nil {
		return 0
	}
	return len(r.assets)
}

// GetFirstObject returns the first asset in result order.
func (r *FetchResult) GetFirstObject() (FileAsset, bool) {
	return r.GetPositionObject(0)
}

// GetPositionObject returns the asset at index i.
func (r *FetchResult) GetPositionObject(i int) (FileAsset, bool) {
	if i < 0 || i >= r.GetCount() {
		return FileAsset{}, false
	}
	return r.assets[i], true
}

// GetAllObjects returns a copy of every asset.
func (r *FetchResult) GetAllObjects() []FileAsset {
	if r == nil {
		return nil
	}
	out := make([]FileAsset, len(r.assets))
	copy(out, r.assets)
	return out
}

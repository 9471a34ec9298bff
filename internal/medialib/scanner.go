package medialib

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/olivier-w/surfacetest/internal/media"
	"github.com/olivier-w/surfacetest/internal/player"
)

// ScanResult summarizes one Scan call.
type ScanResult struct {
	Files int
	// Unreadable counts audio files whose duration could not be read.
	// They are still indexed with what is known. Missing tags are not
	// counted; the title falls back to the file name.
	Unreadable int
}

// Scanner walks a directory and indexes every file into a Store.
type Scanner struct {
	store   *Store
	workers int
	logger  zerolog.Logger
}

// NewScanner creates a scanner that probes up to workers files at once.
func NewScanner(store *Store, workers int, logger zerolog.Logger) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{store: store, workers: workers, logger: logger}
}

// Scan indexes every regular, non-hidden file under root.
func (sc *Scanner) Scan(ctx context.Context, root string) (ScanResult, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return ScanResult{}, fmt.Errorf("walk %s: %w", root, err)
	}

	assets := make([]FileAsset, len(paths))
	readable := make([]bool, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sc.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, ok, err := sc.probe(root, path)
			if err != nil {
				return err
			}
			assets[i], readable[i] = a, ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ScanResult{}, err
	}

	if err := sc.store.InsertAll(ctx, assets); err != nil {
		return ScanResult{}, err
	}

	res := ScanResult{Files: len(assets)}
	for _, ok := range readable {
		if !ok {
			res.Unreadable++
		}
	}
	sc.logger.Info().
		Str("root", root).
		Int("files", res.Files).
		Int("unreadable", res.Unreadable).
		Msg("media library scan finished")
	return res, nil
}

// probe builds the asset for one file. ok is false when the duration could
// not be read; err is set only when the file cannot be opened.
func (sc *Scanner) probe(root, path string) (FileAsset, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileAsset{}, false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return FileAsset{}, false, fmt.Errorf("stat %s: %w", path, err)
	}

	name := filepath.Base(path)
	ext := filepath.Ext(name)
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		rel = ""
	} else {
		rel = filepath.ToSlash(rel) + "/"
	}

	a := FileAsset{
		DisplayName:  name,
		RelativePath: rel,
		MediaType:    media.TypeForExt(ext),
		MimeType:     media.MimeForExt(ext),
		Size:         info.Size(),
		DateAdded:    info.ModTime(),
	}
	if a.MediaType != media.TypeAudio {
		return a, true, nil
	}

	ok := true
	if m, err := tag.ReadFrom(f); err == nil {
		a.Title = strings.TrimSpace(m.Title())
		a.Artist = strings.TrimSpace(m.Artist())
		a.Album = strings.TrimSpace(m.Album())
	}
	if a.Title == "" {
		meta := player.ReadMetadata(f, name)
		a.Title, a.Artist, a.Album = meta.Title, firstNonEmpty(a.Artist, meta.Artist), firstNonEmpty(a.Album, meta.Album)
	}

	if _, err := f.Seek(0, io.SeekStart); err == nil {
		d, err := player.Probe(f, name)
		if err != nil {
			sc.logger.Debug().Err(err).Str("path", path).Msg("probe duration failed")
			ok = false
		} else {
			a.Duration = d.Milliseconds()
		}
	}
	return a, ok, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

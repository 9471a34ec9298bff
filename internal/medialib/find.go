package medialib

import (
	"context"
	"fmt"
)

// Library is the queryable media-library store.
type Library interface {
	GetFileAssets(ctx context.Context, opts FetchOptions) (*FetchResult, error)
}

// FindFile returns the asset whose display name equals displayName, or nil
// when there is none. uri is accepted for call compatibility and does not
// narrow the query. When several assets share the name, which one is
// returned is not specified.
func FindFile(ctx context.Context, lib Library, uri, displayName string) (*FileAsset, error) {
	res, err := lib.GetFileAssets(ctx, FetchOptions{
		Selections:    string(DisplayName) + "= ?",
		SelectionArgs: []string{displayName},
	})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", displayName, err)
	}
	if res.GetCount() == 0 {
		return nil, nil
	}
	asset, _ := res.GetFirstObject()
	return &asset, nil
}

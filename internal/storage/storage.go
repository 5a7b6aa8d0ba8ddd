package storage

import (
	"context"

	"adminctl/internal/types"
)

type (
	Type string

	Storage interface {
		Save(ctx context.Context, location string, f types.File) error
		Get(ctx context.Context, location string) (*types.File, error)
		// List returns the stats of stored objects whose name starts with
		// prefix, newest first.
		List(ctx context.Context, prefix string) ([]types.FileStat, error)
		Ping(ctx context.Context) error
		Type() Type
	}
)

const (
	TypeFS Type = "File"
	TypeS3 Type = "S3"
)

func (t Type) String() string {
	return string(t)
}

// New returns object storage when cred is set, otherwise a filesystem
// store rooted at dir.
func New(dir string, cred *types.StorageCredentials) (Storage, error) {
	if cred == nil || cred.Endpoint == "" {
		return NewFileStorage(dir), nil
	}
	return NewObjectStorage(*cred)
}

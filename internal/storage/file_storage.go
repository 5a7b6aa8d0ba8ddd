package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"adminctl/internal/types"
)

type fileStorage struct {
	dir string
}

// NewFileStorage stores objects as files below dir. Locations are file
// names relative to dir.
func NewFileStorage(dir string) Storage {
	return &fileStorage{dir: dir}
}

func (f fileStorage) Save(_ context.Context, location string, file types.File) error {
	path := f.path(location)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	fi, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	defer fi.Close()

	if _, err := io.Copy(fi, file.Content); err != nil {
		_ = os.Remove(path)
		return errors.Wrap(err, "failed to write "+path)
	}
	return fi.Sync()
}

func (f fileStorage) Get(_ context.Context, location string) (*types.File, error) {
	fi, err := os.Open(f.path(location))
	if err != nil {
		return nil, err
	}

	stat, err := fi.Stat()
	if err != nil {
		_ = fi.Close()
		return nil, err
	}

	return &types.File{
		Content: fi,
		Stat:    types.FileStat{Size: stat.Size(), Name: location, Mode: stat.Mode(), ModTime: stat.ModTime()},
	}, nil
}

func (f fileStorage) List(_ context.Context, prefix string) ([]types.FileStat, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var result []types.FileStat
	for _, next := range entries {
		if next.IsDir() || !strings.HasPrefix(next.Name(), prefix) {
			continue
		}
		info, err := next.Info()
		if err != nil {
			return nil, err
		}
		result = append(result, types.FileStat{
			Name:    next.Name(),
			Size:    info.Size(),
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ModTime.After(result[j].ModTime)
	})
	return result, nil
}

func (f fileStorage) Ping(_ context.Context) error {
	return os.MkdirAll(f.dir, 0700)
}

func (f fileStorage) Type() Type {
	return TypeFS
}

func (f fileStorage) path(location string) string {
	return filepath.Join(f.dir, filepath.Clean("/"+location))
}

package types

import (
	"io"
	"os"
	"time"
)

type File struct {
	Content io.ReadCloser
	Stat    FileStat
}

type FileStat struct {
	Size        int64
	Name        string
	Mode        os.FileMode
	ContentType string
	ModTime     time.Time
}

type NoOpReadCloser struct {
	io.Reader
}

func (NoOpReadCloser) Close() error {
	return nil
}

func (f File) GetContentType() string {
	if f.Stat.ContentType == "" {
		return "application/sql"
	}
	return f.Stat.ContentType
}

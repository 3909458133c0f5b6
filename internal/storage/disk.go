package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DiskStore writes images to <root>/<folder>/<unix-millis><ext>.
// The returned reference is the bare file name.
type DiskStore struct {
	root string
	now  func() time.Time
}

// NewDiskStore creates the folder tree under root if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	for _, folder := range []string{FolderUsers, FolderPhotos} {
		if err := os.MkdirAll(filepath.Join(root, folder), 0o755); err != nil {
			return nil, fmt.Errorf("storage: creating %s: %w", folder, err)
		}
	}
	return &DiskStore{root: root, now: time.Now}, nil
}

// Root is the directory served at /uploads/.
func (d *DiskStore) Root() string { return d.root }

// Save streams r into a new file. Two uploads in the same millisecond get
// consecutive timestamps instead of overwriting each other.
func (d *DiskStore) Save(ctx context.Context, folder, originalName, _ string, r io.Reader) (string, error) {
	if !validFolder(folder) {
		return "", fmt.Errorf("storage: unknown folder %q", folder)
	}
	ext, err := CheckImageName(originalName)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(d.root, folder)
	stamp := d.now().UnixMilli()

	var f *os.File
	var name string
	for attempt := 0; attempt < 100; attempt++ {
		name = strconv.FormatInt(stamp+int64(attempt), 10) + ext
		f, err = os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("storage: creating file: %w", err)
		}
	}
	if f == nil {
		return "", fmt.Errorf("storage: no free file name in %s", dir)
	}

	if _, err := io.Copy(f, readerWithContext(ctx, r)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("storage: writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("storage: closing %s: %w", name, err)
	}

	return name, nil
}

// readerWithContext stops a copy once ctx is done.
func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

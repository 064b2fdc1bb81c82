package food

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// ErrImageNotFound is returned by an ImageStore when nothing exists at the path.
var ErrImageNotFound = errors.New("image not found")

var imageMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ImageStore reads uploaded meal and label photos.
type ImageStore interface {
	Read(ctx context.Context, storagePath string) ([]byte, error)
}

var _ ImageStore = (*AferoImageStore)(nil)

// AferoImageStore serves images from an afero filesystem, usually a base path on disk.
type AferoImageStore struct {
	fs afero.Fs
}

func NewAferoImageStore(fsys afero.Fs) *AferoImageStore {
	return &AferoImageStore{fs: fsys}
}

// NewDiskImageStore roots the store at dir.
func NewDiskImageStore(dir string) *AferoImageStore {
	return NewAferoImageStore(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

func (s *AferoImageStore) Read(ctx context.Context, storagePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := path.Clean("/" + strings.TrimPrefix(storagePath, "/"))
	data, err := afero.ReadFile(s.fs, clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", storagePath, ErrImageNotFound)
		}
		return nil, fmt.Errorf("failed to read image %s: %w", storagePath, err)
	}
	return data, nil
}

// imageMIMEType returns the MIME type for a supported extension and false otherwise.
func imageMIMEType(storagePath string) (string, bool) {
	ext := strings.ToLower(path.Ext(storagePath))
	mime, ok := imageMIMETypes[ext]
	return mime, ok
}

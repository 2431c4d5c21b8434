package vector

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"emperror.dev/errors"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultLibraryDir is where crop border shapes are looked up.
const DefaultLibraryDir = "cropper"

// Entry is one crop border shape file.
type Entry struct {
	Name string
	Path string
}

// List returns the SVG files directly inside dir, sorted by name. Files with
// an .svg extension whose content is not SVG are skipped. A missing
// directory yields an empty list.
func List(dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "cannot read shape directory %s", dir)
	}

	entries := make([]Entry, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.EqualFold(filepath.Ext(file.Name()), ".svg") {
			continue
		}
		path := filepath.Join(dir, file.Name())
		mtype, err := mimetype.DetectFile(path)
		if err != nil || !mtype.Is("image/svg+xml") {
			continue
		}
		entries = append(entries, Entry{Name: file.Name(), Path: path})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

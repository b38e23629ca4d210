package ingestion

import (
	"io/fs"
	"path/filepath"
	"strings"
)

var allowedExt = map[string]bool{".pdf": true, ".txt": true, ".md": true}

// ListSourceFiles walks root and returns every ingestable document path.
func ListSourceFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if allowedExt[strings.ToLower(filepath.Ext(path))] {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

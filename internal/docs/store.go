package docs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

const indexExt = ".json.zst"

// IndexPath is where the index of name@version is stored under dir.
func IndexPath(dir, name, version string) string {
	return filepath.Join(dir, name+"@"+version+indexExt)
}

// SaveIndex stores rustdoc JSON under dir, compressing it with zstd unless it
// already is. It returns the written path.
func SaveIndex(dir string, data []byte, name, version string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating index dir: %w", err)
	}

	if !bytes.HasPrefix(data, zstdMagic) {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return "", fmt.Errorf("creating zstd writer: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("closing zstd writer: %w", err)
		}
	}

	p := IndexPath(dir, name, version)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("writing index file: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("moving index file into place: %w", err)
	}
	return p, nil
}

// LocateIndex finds the stored index of a crate. With an empty version (or
// "latest") the most recently written index of the crate is returned.
func LocateIndex(dir, name, version string) (string, error) {
	if version != "" && version != "latest" {
		p := IndexPath(dir, name, version)
		if _, err := os.Stat(p); err != nil {
			return "", &IndexLoadError{Source: p, Err: err}
		}
		return p, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, name+"@*"+indexExt))
	if err != nil {
		return "", fmt.Errorf("listing indexes: %w", err)
	}
	if len(matches) == 0 {
		return "", &IndexLoadError{
			Source: filepath.Join(dir, name+"@*"+indexExt),
			Err:    fmt.Errorf("no index stored for crate %s (run `ferrisdoc fetch %s`)", name, name),
		}
	}

	type candidate struct {
		path  string
		mtime int64
	}
	var cands []candidate
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		cands = append(cands, candidate{m, info.ModTime().UnixNano()})
	}
	if len(cands) == 0 {
		return "", &IndexLoadError{Source: name, Err: os.ErrNotExist}
	}
	slices.SortFunc(cands, func(a, b candidate) int {
		if a.mtime != b.mtime {
			if a.mtime > b.mtime {
				return -1
			}
			return 1
		}
		return strings.Compare(b.path, a.path)
	})
	return cands[0].path, nil
}

// StoredIndex describes one index file under the index directory.
type StoredIndex struct {
	Crate   string    `json:"crate"`
	Version string    `json:"version"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// ListIndexes returns the stored indexes under dir sorted by crate, then
// version. A missing directory holds no indexes.
func ListIndexes(dir string) ([]StoredIndex, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*@*"+indexExt))
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}

	var out []StoredIndex
	for _, m := range matches {
		base := strings.TrimSuffix(filepath.Base(m), indexExt)
		name, version, ok := strings.Cut(base, "@")
		if !ok {
			continue
		}
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		out = append(out, StoredIndex{
			Crate:   name,
			Version: version,
			Path:    m,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	slices.SortFunc(out, func(a, b StoredIndex) int {
		if c := strings.Compare(a.Crate, b.Crate); c != 0 {
			return c
		}
		return strings.Compare(a.Version, b.Version)
	})
	return out, nil
}

// RemoveIndexes deletes the stored indexes of the given crates, or every
// stored index when crates is empty. It returns how many files were removed.
func RemoveIndexes(dir string, crates ...string) (int, error) {
	stored, err := ListIndexes(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, s := range stored {
		if len(crates) > 0 && !slices.Contains(crates, s.Crate) {
			continue
		}
		if err := os.Remove(s.Path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", s.Path, err)
		}
		removed++
	}
	return removed, nil
}

// Package files is a history.Store keeping one YAML document per entry in a
// directory. File names are the query-escaped keys.
package files

import (
	"context"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/history"
)

const ext = ".yaml"

// Store is a directory of YAML files.
type Store struct {
	dir string
}

var _ history.Store = (*Store)(nil)

// New returns a store rooted at dir, creating it if needed. A leading "~/"
// is expanded to the home directory.
func New(dir string) (*Store, error) {
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.WrapIO("resolve", dir, err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+ext)
}

// Get implements history.Store.
func (s *Store) Get(_ context.Context, key string) (*history.Entry, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.NewNotFoundError("history entry", key)
	}
	if err != nil {
		return nil, errors.WrapIO("read", s.path(key), err)
	}
	var e history.Entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, errors.WrapParse("yaml", s.path(key), err)
	}
	return &e, nil
}

// Put implements history.Store. The file is written to a temporary name
// and renamed into place.
func (s *Store) Put(_ context.Context, key string, entry history.Entry) error {
	data, err := yaml.Marshal(entry)
	if err != nil {
		return errors.WrapParse("yaml", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return errors.WrapIO("create", s.dir, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.WrapIO("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("close", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), constants.FilePermissions); err != nil {
		return errors.WrapIO("chmod", tmp.Name(), err)
	}
	return errors.WrapIO("rename", s.path(key), os.Rename(tmp.Name(), s.path(key)))
}

// Delete implements history.Store.
func (s *Store) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.WrapIO("delete", s.path(key), err)
	}
	return nil
}

// List implements history.Store.
func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.WrapIO("read", s.dir, err)
	}
	var keys []string
	for _, d := range dirents {
		name := d.Name()
		if d.IsDir() || !strings.HasSuffix(name, ext) || strings.HasPrefix(name, ".") {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

package tokenstore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// tokenFileName mirrors the storage key the web client uses.
const tokenFileName = "token"

var _ Store = (*FileStore)(nil)

// FileStore persists the token as a single file under the data folder, so a
// session survives process restarts until Clear removes it.
type FileStore struct {
	path string
}

// NewFileStore creates the data folder if needed and returns a store backed
// by <dataFolder>/token.
func NewFileStore(dataFolder string) (*FileStore, error) {
	if dataFolder == "" {
		return nil, errors.New("[NewFileStore] data folder is required")
	}
	if err := os.MkdirAll(dataFolder, 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileStore] creating data folder")
	}
	return &FileStore{path: filepath.Join(dataFolder, tokenFileName)}, nil
}

func (fs *FileStore) Get() (string, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", errors.Wrap(err, "[FileStore.Get] reading token file")
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (fs *FileStore) Set(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("[FileStore.Set] token is empty")
	}
	if err := os.WriteFile(fs.path, []byte(token), 0o600); err != nil {
		return errors.Wrap(err, "[FileStore.Set] writing token file")
	}
	return nil
}

func (fs *FileStore) Clear() error {
	err := os.Remove(fs.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileStore.Clear] removing token file")
	}
	return nil
}

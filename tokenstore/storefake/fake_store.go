package storefake

import (
	"sync"

	"github.com/Nishanth456/FinAdvisor/tokenstore"
)

var _ tokenstore.Store = (*FakeStore)(nil)

// FakeStore is an in-memory token slot for tests. It counts operations so
// tests can assert how often the slot was touched.
type FakeStore struct {
	lock   sync.RWMutex
	token  string
	held   bool
	Sets   int
	Clears int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (fs *FakeStore) Get() (string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	if !fs.held {
		return "", tokenstore.ErrNoToken
	}
	return fs.token, nil
}

func (fs *FakeStore) Set(token string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.token = token
	fs.held = true
	fs.Sets++
	return nil
}

func (fs *FakeStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.token = ""
	fs.held = false
	fs.Clears++
	return nil
}

// Package profile persists per profile browsing state, the zoom chosen
// for each host, the visit log and named request policies.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v4"
)

// ErrNotFound is returned for lookups of state that was never saved
var ErrNotFound = errors.New("not found in profile")

// ZoomSetting remembers the zoom picked for a host
type ZoomSetting struct {
	Host     string
	Percent  int
	Observed time.Time
}

// Visit is one entry of the visit log
type Visit struct {
	URL      string
	Title    string
	Observed time.Time
}

// Store is the persistent profile state, backed by a single key value
// store per profile name
type Store struct {
	db        *badger.DB
	storePath string
	seq       uint64
}

// NewStore for the named profile under dataPath
func NewStore(dataPath, profile string) *Store {
	return &Store{storePath: filepath.Join(dataPath, profile)}
}

// Init opens the store, creating it on first use
func (s *Store) Init() error {
	if err := os.MkdirAll(s.storePath, 0677); err != nil {
		return err
	}
	var err error
	s.db, err = badger.Open(badger.DefaultOptions(s.storePath))
	if err != nil {
		return errors.Wrap(err, "opening profile store")
	}
	return nil
}

// Close the underlying store
func (s *Store) Close() error {
	return s.db.Close()
}

func makeKey(pred, id string) []byte {
	return []byte(pred + ":" + id)
}

// SaveZoom remembers the zoom percent for a host
func (s *Store) SaveZoom(host string, percent int) error {
	value, err := msgpack.Marshal(&ZoomSetting{Host: host, Percent: percent, Observed: time.Now()})
	if err != nil {
		return errors.Wrap(err, "encoding zoom setting")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeKey("zoom", host), value)
	})
}

// Zoom returns the remembered zoom percent for a host, ErrNotFound when
// the host never had one saved
func (s *Store) Zoom(host string) (int, error) {
	var setting ZoomSetting
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeKey("zoom", host))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &setting)
		})
	})
	if err == badger.ErrKeyNotFound {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return setting.Percent, nil
}

// DeleteZoom forgets the remembered zoom for a host
func (s *Store) DeleteZoom(host string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(makeKey("zoom", host))
	})
}

// AddHistory appends a visit to the log
func (s *Store) AddHistory(url, title string) error {
	visit := &Visit{URL: url, Title: title, Observed: time.Now()}
	value, err := msgpack.Marshal(visit)
	if err != nil {
		return errors.Wrap(err, "encoding visit")
	}
	// zero padded nanos keep iteration in visit order, the sequence
	// breaks ties between visits in the same nanosecond
	id := fmt.Sprintf("%020d.%06d", visit.Observed.UnixNano(), atomic.AddUint64(&s.seq, 1)%1000000)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeKey("hist", id), value)
	})
}

// History returns visits oldest first, limit <= 0 returns everything
func (s *Store) History(limit int) ([]*Visit, error) {
	visits := make([]*Visit, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: makeKey("hist", ""), PrefetchValues: true, PrefetchSize: 64})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if limit > 0 && len(visits) >= limit {
				break
			}
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			visit := &Visit{}
			if err := msgpack.Unmarshal(value, visit); err != nil {
				return err
			}
			visits = append(visits, visit)
		}
		return nil
	})
	return visits, err
}

// SavePolicy stores a named request policy
func (s *Store) SavePolicy(policy *Policy) error {
	if policy == nil || policy.Name == "" {
		return errors.New("policy needs a name")
	}
	if err := policy.Validate(); err != nil {
		return err
	}
	value, err := msgpack.Marshal(policy)
	if err != nil {
		return errors.Wrap(err, "encoding policy")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeKey("policy", policy.Name), value)
	})
}

// Policy returns the named policy, ErrNotFound when it was never saved
func (s *Store) Policy(name string) (*Policy, error) {
	policy := &Policy{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeKey("policy", name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, policy)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return policy, nil
}

// Policies returns every saved policy
func (s *Store) Policies() ([]*Policy, error) {
	policies := make([]*Policy, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: makeKey("policy", ""), PrefetchValues: true, PrefetchSize: 64})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			policy := &Policy{}
			if err := msgpack.Unmarshal(value, policy); err != nil {
				return err
			}
			policies = append(policies, policy)
		}
		return nil
	})
	return policies, err
}

// DeletePolicy removes the named policy
func (s *Store) DeletePolicy(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(makeKey("policy", name))
	})
}

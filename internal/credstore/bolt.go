package credstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"taskdeck/internal/service"
)

var credentialsBucket = []byte("credentials")

// lockTimeout bounds the wait for another process holding the file.
const lockTimeout = time.Second

// BoltStore keeps the session record in a bbolt file. The file is opened
// for each operation, read-only for Load, so a long-running process such as
// the TUI does not hold the lock between operations.
type BoltStore struct {
	path string
}

// OpenBolt creates the bbolt file at path if needed and ensures the bucket
// exists. The parent directory must exist.
func OpenBolt(path string) (*BoltStore, error) {
	s := &BoltStore{path: path}
	if err := s.update(func(*bolt.Bucket) error { return nil }); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string {
	return s.path
}

func (s *BoltStore) Load(ctx context.Context) (service.Session, bool, error) {
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: lockTimeout, ReadOnly: true})
	if errors.Is(err, fs.ErrNotExist) {
		return service.Session{}, false, nil
	}
	if err != nil {
		return service.Session{}, false, err
	}
	defer db.Close()

	var data []byte
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(credentialsBucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(SessionKey)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return service.Session{}, false, err
	}
	if data == nil {
		return service.Session{}, false, nil
	}
	sess, err := decode(data)
	if err != nil {
		return service.Session{}, false, err
	}
	return sess, true, nil
}

func (s *BoltStore) Save(ctx context.Context, sess service.Session) error {
	payload, err := encode(sess)
	if err != nil {
		return err
	}
	return s.update(func(b *bolt.Bucket) error {
		return b.Put([]byte(SessionKey), payload)
	})
}

func (s *BoltStore) Remove(ctx context.Context) error {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return s.update(func(b *bolt.Bucket) error {
		return b.Delete([]byte(SessionKey))
	})
}

// Close is a no-op; the file is closed after every operation.
func (s *BoltStore) Close() error {
	return nil
}

func (s *BoltStore) update(fn func(*bolt.Bucket) error) error {
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(credentialsBucket)
		if err != nil {
			return err
		}
		return fn(b)
	})
}

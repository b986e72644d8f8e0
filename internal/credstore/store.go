// Package credstore persists the one serialized session record on the device.
package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"taskdeck/internal/config"
	"taskdeck/internal/service"
)

// SessionKey is the fixed key the session record is stored under.
const SessionKey = "taskdeck.session"

// ErrCorrupt is returned by Load when the stored record cannot be decoded.
var ErrCorrupt = errors.New("stored session is corrupt")

// Store holds at most one Session.
type Store interface {
	// Load returns the stored session. ok is false when nothing is stored.
	Load(ctx context.Context) (sess service.Session, ok bool, err error)

	// Save overwrites the stored session.
	Save(ctx context.Context, sess service.Session) error

	// Remove deletes the stored session. Removing nothing is not an error.
	Remove(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Open returns the backend selected by cfg.Store.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store {
	case config.StoreFile:
		if err := cfg.EnsureDir(); err != nil {
			return nil, err
		}
		return NewFileStore(cfg.SessionPath()), nil
	case config.StoreRedis:
		return OpenRedis(ctx, cfg.RedisURL)
	case config.StoreBolt, "":
		if err := cfg.EnsureDir(); err != nil {
			return nil, err
		}
		return OpenBolt(cfg.SessionDBPath())
	default:
		return nil, fmt.Errorf("unknown credential store: %s", cfg.Store)
	}
}

func encode(sess service.Session) ([]byte, error) {
	return json.Marshal(sess)
}

func decode(data []byte) (service.Session, error) {
	var sess service.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return service.Session{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if sess.Token == "" {
		return service.Session{}, fmt.Errorf("%w: missing token", ErrCorrupt)
	}
	return sess, nil
}

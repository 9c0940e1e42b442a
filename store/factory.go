package store

import (
	"context"
	"errors"
	"io"

	"github.com/jacobmichels/portal"
	"github.com/jacobmichels/portal/config"
	"github.com/rs/zerolog/log"
)

// Store is a KeyValueStore that holds a resource which must be released
type Store interface {
	portal.KeyValueStore
	io.Closer
}

// New opens the backend named by cfg.Type and namespaces every key with cfg.KeyPrefix
func New(ctx context.Context, cfg config.Store) (Store, error) {
	var (
		s   Store
		err error
	)

	switch cfg.Type {
	case "memory":
		log.Info().Msg("creating memory store")
		s = NewMemory()
	case "bolt":
		log.Info().Str("path", cfg.Bolt.Path).Msg("creating bolt store")
		s, err = newBoltStore(cfg.Bolt)
	case "sqlite":
		log.Info().Msg("creating sqlite store")
		s, err = newSQLiteStore(ctx, cfg.SQLite)
	case "postgres":
		log.Info().Msg("creating postgres store")
		s, err = newPostgresStore(ctx, cfg.Postgres)
	case "redis":
		log.Info().Str("addr", cfg.Redis.Addr).Msg("creating redis store")
		s, err = newRedisStore(ctx, cfg.Redis)
	case "firestore":
		log.Info().Str("project", cfg.Firestore.ProjectID).Msg("creating firestore store")
		s, err = newFirestoreStore(ctx, cfg.Firestore)
	default:
		return nil, errors.New("invalid store type")
	}
	if err != nil {
		return nil, err
	}

	return WithPrefix(s, cfg.KeyPrefix), nil
}

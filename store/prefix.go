package store

import "context"

var _ Store = prefixed{}

// prefixed namespaces keys so several portals can share one backend
type prefixed struct {
	inner  Store
	prefix string
}

// WithPrefix returns s unchanged when prefix is empty
func WithPrefix(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return prefixed{s, prefix}
}

func (p prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}

func (p prefixed) Close() error {
	return p.inner.Close()
}

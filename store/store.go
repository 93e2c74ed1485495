// Package store persists typewire values in a byte Provider.
//
// Values are written as typewire envelopes (serializer id + descriptor
// fingerprint + payload) under "tw:<ns>:<key>". Reads validate the frame and
// the fingerprint against the descriptor passed to Get; anything that does
// not decode is deleted and reported as a miss, so a descriptor change
// drains old entries instead of failing callers.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unkn0wn-root/typewire"
	"github.com/unkn0wn-root/typewire/internal/wire"
	"github.com/unkn0wn-root/typewire/provider"
)

const defaultTTL = 10 * time.Minute

var ErrEmptyKey = errors.New("store: empty key")

// SetCostFunc computes the admission cost passed to Provider.Set.
// raw is the full envelope.
type SetCostFunc func(key string, raw []byte) int64

type Options struct {
	// Namespace separates stores sharing one provider. Required.
	Namespace string
	// Provider holds the envelopes. Required.
	Provider provider.Provider
	// Codec encodes values; nil => typewire.Default.
	Codec *typewire.Codec
	// Logger; nil => the Codec's logger.
	Logger typewire.Logger
	// DefaultTTL applies when Put gets ttl <= 0; 0 => 10m.
	DefaultTTL time.Duration
	// ComputeSetCost; nil => envelope length.
	ComputeSetCost SetCostFunc
	// Hooks; nil => NopHooks.
	Hooks Hooks
	// Disabled turns every operation into a no-op miss.
	Disabled bool
}

type Store struct {
	ns         string
	provider   provider.Provider
	codec      *typewire.Codec
	log        typewire.Logger
	defaultTTL time.Duration
	cost       SetCostFunc
	hooks      Hooks
	enabled    bool
}

func New(opts Options) (*Store, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("store: provider is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("store: namespace is required")
	}

	s := &Store{
		ns:         opts.Namespace,
		provider:   opts.Provider,
		codec:      opts.Codec,
		log:        opts.Logger,
		defaultTTL: opts.DefaultTTL,
		cost:       opts.ComputeSetCost,
		hooks:      opts.Hooks,
		enabled:    !opts.Disabled,
	}

	// defaults
	if s.codec == nil {
		s.codec = typewire.Default
	}
	if s.log == nil {
		s.log = s.codec.Logger()
	}
	if s.defaultTTL <= 0 {
		s.defaultTTL = defaultTTL
	}
	if s.hooks == nil {
		s.hooks = NopHooks{}
	}
	if s.cost == nil {
		s.cost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}
	return s, nil
}

func (s *Store) Enabled() bool { return s.enabled }

// Put encodes v under t and writes it with ttl (<= 0 => DefaultTTL).
// A write the provider rejects under pressure is not an error.
func (s *Store) Put(ctx context.Context, key string, v any, t *typewire.Type, ttl time.Duration) error {
	if !s.enabled {
		return nil
	}
	if key == "" {
		return ErrEmptyKey
	}
	raw, err := s.codec.MarshalEnvelope(v, t)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	k := s.storageKey(key)
	ok, err := s.provider.Set(ctx, k, raw, s.cost(k, raw), ttl)
	if err != nil {
		return fmt.Errorf("store: set %s: %w", k, err)
	}
	if !ok {
		s.hooks.ProviderSetRejected(k)
		s.log.Debug("Put rejected by provider (pressure)", typewire.Fields{"key": k})
	}
	return nil
}

// Get reads key and decodes it under t. Frames that are corrupt, were written
// under another descriptor, or no longer decode are deleted and reported as
// a miss. Provider errors and ErrUnknownType are returned as-is.
func (s *Store) Get(ctx context.Context, key string, t *typewire.Type) (any, bool, error) {
	if !s.enabled {
		return nil, false, nil
	}
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	k := s.storageKey(key)
	raw, ok, err := s.provider.Get(ctx, k)
	if err != nil || !ok {
		return nil, false, err
	}
	v, err := s.codec.UnmarshalEnvelope(raw, t)
	if err == nil {
		return v, true, nil
	}
	if !typewire.IsDecodeFailure(err) {
		return nil, false, err
	}
	reason := healReason(err)
	s.hooks.SelfHeal(k, reason)
	s.log.Warn("dropping undecodable entry", typewire.Fields{"key": k, "reason": reason, "err": err})
	if derr := s.provider.Del(ctx, k); derr != nil {
		s.hooks.SelfHealDeleteError(k, derr)
		s.log.Error("self-heal delete failed", typewire.Fields{"key": k, "err": derr})
	}
	return nil, false, nil
}

func healReason(err error) string {
	switch {
	case errors.Is(err, wire.ErrCorrupt):
		return "corrupt"
	case errors.Is(err, typewire.ErrSchemaMismatch):
		return "schema_mismatch"
	}
	return "value_decode"
}

// GetAs is Get with the decoded value asserted to T.
func GetAs[T any](ctx context.Context, s *Store, key string, t *typewire.Type) (T, bool, error) {
	var zero T
	v, ok, err := s.Get(ctx, key, t)
	if err != nil || !ok {
		return zero, ok, err
	}
	out, isT := v.(T)
	if !isT && v != nil {
		return zero, false, &typewire.Error{
			Kind:  typewire.ErrTypeMismatch,
			Type:  t,
			Value: v,
			Msg:   fmt.Sprintf("stored value is not %T", zero),
		}
	}
	return out, true, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if !s.enabled {
		return nil
	}
	if key == "" {
		return ErrEmptyKey
	}
	return s.provider.Del(ctx, s.storageKey(key))
}

func (s *Store) Close(ctx context.Context) error {
	return s.provider.Close(ctx)
}

func (s *Store) storageKey(key string) string {
	return "tw:" + s.ns + ":" + key
}

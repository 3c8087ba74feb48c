package cart

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tmrivera/cardhaven-backend/pkg/logger"
	"github.com/tmrivera/cardhaven-backend/pkg/redis"
)

// snapshotKV is the slice of the Redis client the snapshot store depends on.
type snapshotKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...any) error
	SRem(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
	CartSnapshotKey(cartID string) string
	CartIndexKey() string
}

// SnapshotStore persists cart snapshots as lightly obfuscated blobs under one
// namespaced key per cart, and keeps an index set of live cart IDs for the
// revalidation worker.
type SnapshotStore struct {
	kv        snapshotKV
	logg      *logger.Logger
	retention time.Duration
	now       func() time.Time
}

// NewSnapshotStore builds a snapshot store over the provided Redis client.
func NewSnapshotStore(kv snapshotKV, logg *logger.Logger, retention time.Duration) (*SnapshotStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &SnapshotStore{
		kv:        kv,
		logg:      logg,
		retention: retention,
		now:       time.Now,
	}, nil
}

// Save serializes the snapshot and writes it under the cart's key. The blob is
// base64-wrapped JSON: obfuscated against casual inspection, not secured.
func (s *SnapshotStore) Save(ctx context.Context, cartID string, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	blob := base64.StdEncoding.EncodeToString(raw)

	if err := s.kv.Set(ctx, s.kv.CartSnapshotKey(cartID), blob, s.retention); err != nil {
		return fmt.Errorf("write cart snapshot: %w", err)
	}
	if err := s.kv.SAdd(ctx, s.kv.CartIndexKey(), cartID); err != nil {
		return fmt.Errorf("index cart: %w", err)
	}
	return nil
}

// Load reads the cart's snapshot. This path never fails the caller: a missing
// key, a snapshot older than the retention window, or a blob that does not
// parse all degrade to an empty cart, with stale/corrupt keys cleared. A key
// Redis already expired server-side is also dropped from the live index here,
// otherwise the cart ID would dangle in the index forever.
func (s *SnapshotStore) Load(ctx context.Context, cartID string) Snapshot {
	blob, err := s.kv.Get(ctx, s.kv.CartSnapshotKey(cartID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.deindex(ctx, cartID)
		} else {
			s.logg.Error(s.logg.WithCartID(ctx, cartID), "cart snapshot read failed", err)
		}
		return Snapshot{}
	}

	snap, ok := s.decode(blob)
	if !ok {
		s.logg.Warn(s.logg.WithCartID(ctx, cartID), "discarding unreadable cart snapshot")
		s.discard(ctx, cartID)
		return Snapshot{}
	}

	if s.now().UTC().Sub(snap.Timestamp) > s.retention {
		s.discard(ctx, cartID)
		return Snapshot{}
	}

	return snap
}

// Delete removes the cart's snapshot and drops it from the live index.
func (s *SnapshotStore) Delete(ctx context.Context, cartID string) error {
	if err := s.kv.Del(ctx, s.kv.CartSnapshotKey(cartID)); err != nil {
		return fmt.Errorf("delete cart snapshot: %w", err)
	}
	if err := s.kv.SRem(ctx, s.kv.CartIndexKey(), cartID); err != nil {
		return fmt.Errorf("deindex cart: %w", err)
	}
	return nil
}

// LiveCartIDs lists the cart IDs currently present in the index set.
func (s *SnapshotStore) LiveCartIDs(ctx context.Context) ([]string, error) {
	return s.kv.SMembers(ctx, s.kv.CartIndexKey())
}

// decode unwraps and validates the persisted blob. Any structural problem
// invalidates the snapshot wholesale rather than line-by-line.
func (s *SnapshotStore) decode(blob string) (Snapshot, bool) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, false
	}
	if snap.Timestamp.IsZero() {
		return Snapshot{}, false
	}
	for _, item := range snap.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			return Snapshot{}, false
		}
	}
	return snap, true
}

func (s *SnapshotStore) discard(ctx context.Context, cartID string) {
	if err := s.Delete(ctx, cartID); err != nil {
		s.logg.Error(s.logg.WithCartID(ctx, cartID), "failed to clear cart snapshot key", err)
	}
}

func (s *SnapshotStore) deindex(ctx context.Context, cartID string) {
	if err := s.kv.SRem(ctx, s.kv.CartIndexKey(), cartID); err != nil {
		s.logg.Error(s.logg.WithCartID(ctx, cartID), "failed to deindex expired cart", err)
	}
}

package services

import "context"

// SlotLocker is a best-effort mutex around plan generation for one slot. A
// held lock stops two workers from paying for the same model call twice; it
// is an optimization, not the correctness guarantee.
type SlotLocker interface {
	// TryLock returns true when the lock was acquired. False means another
	// holder is active; callers may proceed anyway.
	TryLock(ctx context.Context, key string) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// NopSlotLocker always grants the lock. Used when redis is not configured.
type NopSlotLocker struct{}

func (NopSlotLocker) TryLock(ctx context.Context, key string) (bool, error) { return true, nil }
func (NopSlotLocker) Unlock(ctx context.Context, key string) error          { return nil }

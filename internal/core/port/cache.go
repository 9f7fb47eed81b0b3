package port

import "context"

//go:generate mockgen -source=cache.go -destination=mock/cache.go -package=mock

// InventoryCache is a best-effort cache for per-raffle availability counts.
// The engine never trusts it for allocation decisions; a miss or error just
// falls through to the store.
type InventoryCache interface {
	GetAvailableCount(ctx context.Context, raffleID uint64) (count int, ok bool, err error)
	SetAvailableCount(ctx context.Context, raffleID uint64, count int) error
	InvalidateAvailableCount(ctx context.Context, raffleID uint64) error
}

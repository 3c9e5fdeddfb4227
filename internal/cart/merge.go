package cart

import (
	"context"
	"log/slog"

	"github.com/mercaly/storefront/internal/metrics"
	"github.com/mercaly/storefront/internal/remote"
)

// MergeGuestCart drains the guest cart into the remote cart. It runs exactly
// once, immediately after a signup or login makes the remote cart available.
//
// The guest key is cleared whether or not the merge call lands. This is an
// at-most-once guarantee: a transient failure loses the guest lines rather
// than risking doubled quantities on a retry. Conflicting lines already in
// the remote cart are resolved server-side; this client only promises to
// submit every guest line exactly once.
func (m *Manager) MergeGuestCart(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mergeLocked(ctx)
}

func (m *Manager) mergeLocked(ctx context.Context) error {
	items := m.guest.Load(ctx)

	var mergeErr error
	if len(items) > 0 {
		lines := make([]remote.MergeItem, 0, len(items))
		for _, it := range items {
			if it.Quantity <= 0 {
				continue
			}
			lines = append(lines, remote.MergeItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
			})
		}
		_, mergeErr = m.remote.Merge(ctx, lines)
		if mergeErr != nil {
			slog.Error("guest cart merge failed, guest lines will be dropped", "lines", len(lines), "error", mergeErr)
		} else {
			slog.Info("guest cart merged", "lines", len(lines))
		}
		metrics.MergeAttempts.WithLabelValues(metrics.Outcome(mergeErr)).Inc()
	}

	if err := m.guest.Clear(ctx); err != nil {
		slog.Error("failed to clear guest cart after merge", "error", err)
		if mergeErr == nil {
			mergeErr = err
		}
	}

	if err := m.refreshLocked(ctx); err != nil && mergeErr == nil {
		mergeErr = err
	}
	return mergeErr
}

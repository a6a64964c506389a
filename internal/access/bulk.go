package access

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/casedesk/casedesk/internal/shared"
)

// bulkConcurrency bounds the fan-out of one bulk check. Each item only reads
// shared state, so parallel evaluation preserves per-item isolation.
const bulkConcurrency = 4

// CheckItem is one (element key, permission type) pair in a bulk check.
type CheckItem struct {
	ElementKey     string
	PermissionType PermissionType
}

// ResultKey builds the response-map key for one item.
func (i CheckItem) ResultKey() string {
	return i.ElementKey + "." + string(i.PermissionType)
}

// BulkCheckPermissions evaluates many checks for one subject, sharing a
// single principal lookup across items. A failure on one item records false
// for that item's key and never aborts the batch; the result map always
// covers every input item.
func (r *Resolver) BulkCheckPermissions(ctx context.Context, authUserID string, items []CheckItem) map[string]bool {
	results := make(map[string]bool, len(items))
	for _, item := range items {
		results[item.ResultKey()] = false
	}

	principal, err := r.principals.CurrentUserInfo(ctx, authUserID)
	if err != nil || principal == nil {
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			r.denyOnError("*", "", &ResolutionError{Stage: stagePrincipal, Err: err})
		}
		return results
	}

	var mu sync.Mutex
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(bulkConcurrency)
	for _, item := range items {
		item := item
		group.Go(func() error {
			allowed, err := r.evaluate(ctx, principal, item.ElementKey, item.PermissionType)
			if err != nil {
				r.denyOnError(item.ElementKey, item.PermissionType, err)
				allowed = false
			}
			mu.Lock()
			results[item.ResultKey()] = allowed
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()
	return results
}

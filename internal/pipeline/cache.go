package pipeline

import (
	"context"
	"errors"
	"log"

	"github.com/vidscribe/api/internal/model"
	"github.com/vidscribe/api/internal/store"
)

// Runner memoizes stage outputs across two storage tiers. Reads try the
// remote tier first and fall back to local; computed results are written to
// the remote tier best-effort and to the local tier always, so a run can be
// resumed from either side. ForceRefresh skips reads but still persists.
type Runner struct {
	Remote       store.Store
	Local        store.Store
	ForceRefresh bool
}

// Do returns the cached artifact for key, or computes, persists and returns
// it. The second return reports whether the value came from a cache tier.
func (r *Runner) Do(ctx context.Context, key model.ArtifactKey, compute func(ctx context.Context) ([]byte, error)) ([]byte, bool, error) {
	objectKey := key.ObjectKey()
	contentType := key.Kind.ContentType()

	if !r.ForceRefresh {
		if r.Remote != nil {
			data, err := r.Remote.Get(ctx, objectKey)
			if err == nil {
				// Mirror remote hits locally so later stages that read
				// files off disk find them.
				if putErr := r.Local.Put(ctx, objectKey, data, contentType); putErr != nil {
					log.Printf("Warning: failed to mirror %s locally: %v", objectKey, putErr)
				}
				return data, true, nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				log.Printf("Warning: remote read of %s failed: %v", objectKey, err)
			}
		}

		data, err := r.Local.Get(ctx, objectKey)
		if err == nil {
			return data, true, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Warning: local read of %s failed: %v", objectKey, err)
		}
	}

	data, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}

	if r.Remote != nil {
		if putErr := r.Remote.Put(ctx, objectKey, data, contentType); putErr != nil {
			log.Printf("Warning: failed to upload %s: %v", objectKey, putErr)
		}
	}
	if putErr := r.Local.Put(ctx, objectKey, data, contentType); putErr != nil {
		log.Printf("Warning: failed to persist %s locally: %v", objectKey, putErr)
	}
	return data, false, nil
}

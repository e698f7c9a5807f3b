package products

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"
)

// Reconciler closes the gap left by two-phase product creation: the record is
// written before its image is uploaded, and the upload may never happen.
type Reconciler struct {
	Store  *Handler
	Images *ImageHandler
}

// PendingImages returns the products whose image has not been seen in object
// storage yet.
func PendingImages(list []Product) []Product {
	var pending []Product
	for _, p := range list {
		if !p.ImageUploaded && p.ImageKey != "" {
			pending = append(pending, p)
		}
	}
	return pending
}

// Reconcile checks every pending product (or only the given ids, when any are
// passed) and marks those whose image now exists. It returns the ids that were
// marked.
func (r *Reconciler) Reconcile(ctx context.Context, onlyIDs ...string) ([]string, error) {
	list, err := r.Store.List(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(onlyIDs))
	for _, id := range onlyIDs {
		wanted[id] = true
	}

	var marked []string
	var errs []error
	for _, p := range PendingImages(list) {
		if len(wanted) > 0 && !wanted[p.ID] {
			continue
		}

		exists, err := r.Images.Exists(ctx, p.ImageKey)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !exists {
			slog.Info("Image not uploaded yet", "product", p.ID, "key", p.ImageKey)
			continue
		}

		if err := r.Store.MarkImageUploaded(ctx, p.ID); err != nil {
			errs = append(errs, fmt.Errorf("could not mark image uploaded for %s: %w", p.ID, err))
			continue
		}
		slog.Info("Marked image uploaded", "product", p.ID)
		marked = append(marked, p.ID)
	}

	return marked, errors.Join(errs...)
}

// ReconcileEvent is the payload of the reconcile function. An empty id list
// means every pending product.
type ReconcileEvent struct {
	ProductIDs []string `json:"productIds"`
}

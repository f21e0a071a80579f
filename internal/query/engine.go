// Package query turns sparse parcel filters into store scans restricted to
// what the caller may see.
package query

import (
	"context"

	"parcel-tracker/internal/apperrors"
	"parcel-tracker/internal/models"
)

var (
	// ErrPermissionDenied indicates a customer asking for every parcel.
	ErrPermissionDenied = apperrors.New(apperrors.CodePermissionDenied, "only the administrator may query all parcels")
	// ErrUnknownFilterType indicates a filter mode outside the known set.
	ErrUnknownFilterType = apperrors.New(apperrors.CodeUnknownFilterType, "unknown filter type")
)

// Store is the parcel scan the engine runs.
type Store interface {
	ListParcels(ctx context.Context, f models.ParcelFilter) ([]models.Parcel, error)
}

// Engine answers parcel queries.
type Engine struct {
	store Store
}

// NewEngine creates an Engine over store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Query returns the parcels matching f that caller may see, in store order.
func (e *Engine) Query(ctx context.Context, caller models.Account, f models.ParcelFilter) ([]models.Parcel, error) {
	resolved, err := Resolve(caller, f)
	if err != nil {
		return nil, err
	}

	parcels, err := e.store.ListParcels(ctx, resolved)
	if err != nil {
		return nil, apperrors.Storage("scan parcels", err)
	}

	visible := parcels[:0]
	for _, p := range parcels {
		if resolved.Match(p) && canSee(caller, p) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// Resolve applies the mode to f: ALL is reserved to the administrator,
// AS_SENDER pins srcName to the caller and AS_RECEIVER pins dstName. The other
// side, if supplied, stays as the counterparty condition.
func Resolve(caller models.Account, f models.ParcelFilter) (models.ParcelFilter, error) {
	switch f.Mode {
	case models.QueryAll:
		if !caller.IsAdministrator() {
			return models.ParcelFilter{}, ErrPermissionDenied
		}
	case models.QueryAsSender:
		f.SrcName = models.Ptr(caller.Username)
	case models.QueryAsReceiver:
		f.DstName = models.Ptr(caller.Username)
	default:
		return models.ParcelFilter{}, ErrUnknownFilterType
	}
	return f, nil
}

func canSee(caller models.Account, p models.Parcel) bool {
	if caller.IsAdministrator() {
		return true
	}
	return p.SrcName == caller.Username || p.DstName == caller.Username
}

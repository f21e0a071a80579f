package service

import (
	"context"
	"errors"
	"log"

	"parcel-tracker/internal/apperrors"
	"parcel-tracker/internal/auth"
	"parcel-tracker/internal/models"
	"parcel-tracker/internal/storage"
)

// SendParcel charges the caller the flat rate, records a pending parcel to dst
// and returns its id. The administrator ships for free.
func (s *Service) SendParcel(ctx context.Context, c auth.Capability, sent models.Date, dst, description string) (int64, error) {
	sender, err := s.auth.Verify(c)
	if err != nil {
		return 0, err
	}
	if err := validateSendingDate(sent); err != nil {
		return 0, err
	}
	if _, err := s.store.GetUser(ctx, dst); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, apperrors.New(apperrors.CodeUnknownAccount, "recipient "+dst+" does not exist")
		}
		return 0, apperrors.Storage("load recipient", err)
	}

	admin, err := s.store.GetAdministrator(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, apperrors.New(apperrors.CodeUnknownAccount, "administrator account does not exist")
		}
		return 0, apperrors.Storage("load administrator", err)
	}

	charged := sender != admin.Username
	if charged {
		if err := s.ledger.Transfer(ctx, sender, models.FlatRate, admin.Username); err != nil {
			return 0, err
		}
	}

	parcel, err := s.store.CreateParcel(ctx, models.Parcel{
		Cost:        models.FlatRate,
		State:       models.StatePending,
		SendingDate: sent,
		SrcName:     sender,
		DstName:     dst,
		Description: description,
	})
	if err != nil {
		if charged {
			if refundErr := s.ledger.Transfer(ctx, admin.Username, models.FlatRate, sender); refundErr != nil {
				log.Printf("failed to refund %s after a failed send: %v", sender, refundErr)
			}
		}
		return 0, apperrors.Storage("create parcel", err)
	}

	log.Printf("parcel %d sent from %s to %s", parcel.ID, sender, dst)
	return parcel.ID, nil
}

// ReceiveParcel marks a pending parcel addressed to the caller as received on
// the current logistics date, which it returns.
func (s *Service) ReceiveParcel(ctx context.Context, c auth.Capability, id int64) (models.Date, error) {
	username, err := s.auth.Verify(c)
	if err != nil {
		return models.Date{}, err
	}

	parcel, err := s.store.GetParcel(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Date{}, ErrParcelNotFound
		}
		return models.Date{}, apperrors.Storage("load parcel", err)
	}
	if parcel.State != models.StatePending {
		return models.Date{}, ErrParcelNotPending
	}
	if parcel.DstName != username {
		return models.Date{}, ErrNotRecipient
	}

	today := s.calendar.Today()
	if err := s.store.MarkReceived(ctx, id, today); err != nil {
		if errors.Is(err, storage.ErrStateChanged) {
			return models.Date{}, ErrParcelNotPending
		}
		return models.Date{}, apperrors.Storage("mark parcel received", err)
	}
	return today, nil
}

// QueryParcels returns the parcels matching f that the caller may see.
func (s *Service) QueryParcels(ctx context.Context, c auth.Capability, f models.ParcelFilter) ([]models.Parcel, error) {
	account, err := s.caller(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.engine.Query(ctx, *account, f)
}

// AdvanceDays moves the logistics calendar forward. Administrator only.
func (s *Service) AdvanceDays(ctx context.Context, c auth.Capability, days int) (models.Date, error) {
	account, err := s.caller(ctx, c)
	if err != nil {
		return models.Date{}, err
	}
	if !account.IsAdministrator() {
		return models.Date{}, ErrAdministratorOnly
	}
	return s.calendar.AddDays(days)
}

// Today returns the current logistics date.
func (s *Service) Today() models.Date {
	return s.calendar.Today()
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"parcel-tracker/internal/models"
)

const parcelColumns = `SELECT id, cost, state, sending_year, sending_month, sending_day,
	receiving_year, receiving_month, receiving_day, src_name, dst_name, description
	FROM parcels`

// CreateParcel inserts p with the next free id (current max id + 1) and returns
// the stored record.
func (db *DB) CreateParcel(ctx context.Context, p models.Parcel) (*models.Parcel, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin parcel transaction: %w", err)
	}
	defer tx.Rollback()

	var maxID int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) FROM parcels").Scan(&maxID); err != nil {
		return nil, fmt.Errorf("read max parcel id: %w", err)
	}
	p.ID = maxID + 1

	_, err = tx.ExecContext(ctx, `INSERT INTO parcels (
			id, cost, state, sending_year, sending_month, sending_day,
			receiving_year, receiving_month, receiving_day, src_name, dst_name, description
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Cost, p.State, p.SendingDate.Year, p.SendingDate.Month, p.SendingDate.Day,
		nullableDatePart(p.ReceivingDate, p.ReceivingDate.Year),
		nullableDatePart(p.ReceivingDate, p.ReceivingDate.Month),
		nullableDatePart(p.ReceivingDate, p.ReceivingDate.Day),
		p.SrcName, p.DstName, p.Description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert parcel: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit parcel: %w", err)
	}
	return &p, nil
}

// GetParcel retrieves a parcel by id.
func (db *DB) GetParcel(ctx context.Context, id int64) (*models.Parcel, error) {
	row := db.conn.QueryRowContext(ctx, parcelColumns+" WHERE id = ?", id)
	p, err := scanParcel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get parcel: %w", err)
	}
	return p, nil
}

// MarkReceived moves a pending parcel to the received state. It returns
// ErrStateChanged when the parcel is no longer pending.
func (db *DB) MarkReceived(ctx context.Context, id int64, on models.Date) error {
	result, err := db.conn.ExecContext(ctx, `UPDATE parcels
		SET state = ?, receiving_year = ?, receiving_month = ?, receiving_day = ?
		WHERE id = ? AND state = ?`,
		models.StateReceived, on.Year, on.Month, on.Day, id, models.StatePending,
	)
	if err != nil {
		return fmt.Errorf("mark parcel received: %w", err)
	}
	if err := requireOneRow(result); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrStateChanged
		}
		return err
	}
	return nil
}

// ListParcels scans parcels matching every supplied filter field, in id order.
// The filter mode is not interpreted here.
func (db *DB) ListParcels(ctx context.Context, f models.ParcelFilter) ([]models.Parcel, error) {
	var conds []string
	var args []any
	eq := func(column string, value any) {
		conds = append(conds, column+" = ?")
		args = append(args, value)
	}

	if f.ID != nil {
		eq("id", *f.ID)
	}
	if f.SendingYear != nil {
		eq("sending_year", *f.SendingYear)
	}
	if f.SendingMonth != nil {
		eq("sending_month", *f.SendingMonth)
	}
	if f.SendingDay != nil {
		eq("sending_day", *f.SendingDay)
	}
	if f.ReceivingYear != nil {
		eq("receiving_year", *f.ReceivingYear)
	}
	if f.ReceivingMonth != nil {
		eq("receiving_month", *f.ReceivingMonth)
	}
	if f.ReceivingDay != nil {
		eq("receiving_day", *f.ReceivingDay)
	}
	if f.SrcName != nil {
		eq("src_name", *f.SrcName)
	}
	if f.DstName != nil {
		eq("dst_name", *f.DstName)
	}

	query := parcelColumns
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}
	defer rows.Close()

	parcels := []models.Parcel{}
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parcel: %w", err)
		}
		parcels = append(parcels, *p)
	}
	return parcels, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParcel(row rowScanner) (*models.Parcel, error) {
	var p models.Parcel
	var recvYear, recvMonth, recvDay sql.NullInt64
	err := row.Scan(
		&p.ID, &p.Cost, &p.State,
		&p.SendingDate.Year, &p.SendingDate.Month, &p.SendingDate.Day,
		&recvYear, &recvMonth, &recvDay,
		&p.SrcName, &p.DstName, &p.Description,
	)
	if err != nil {
		return nil, err
	}
	if recvYear.Valid {
		p.ReceivingDate = models.Date{
			Year:  int(recvYear.Int64),
			Month: int(recvMonth.Int64),
			Day:   int(recvDay.Int64),
		}
	}
	return &p, nil
}

func nullableDatePart(d models.Date, part int) sql.NullInt64 {
	if d.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(part), Valid: true}
}

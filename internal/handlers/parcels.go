package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"parcel-tracker/internal/models"
	"parcel-tracker/internal/query"
)

// absent marks an omitted filter argument.
const absent = "*"

func (h *Handlers) send(ctx context.Context, args []string) error {
	c, err := h.current()
	if err != nil {
		return err
	}

	var date [3]int
	for i, name := range []string{"year", "month", "day"} {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", name, args[i])
		}
		date[i] = v
	}
	sent := models.Date{Year: date[0], Month: date[1], Day: date[2]}

	description := ""
	if len(args) > 4 {
		description = args[4]
	}
	id, err := h.service.SendParcel(ctx, c, sent, args[3], description)
	if err != nil {
		return err
	}
	h.printer.Fprintf(h.out, "sent parcel %d to %s for %d\n", id, args[3], models.FlatRate)
	return nil
}

func (h *Handlers) receive(ctx context.Context, args []string) error {
	c, err := h.current()
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("parcel id must be an integer, got %q", args[0])
	}
	on, err := h.service.ReceiveParcel(ctx, c, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(h.out, "received parcel %d on %s\n", id, on)
	return nil
}

func (h *Handlers) queryAllItems(ctx context.Context, _ []string) error {
	return h.runQuery(ctx, models.ParcelFilter{Mode: models.QueryAll})
}

// query <id> <sendY> <sendM> <sendD> <recvY> <recvM> <recvD> <src> <dst>
func (h *Handlers) query(ctx context.Context, args []string) error {
	f, err := parseFilter(models.QueryAll, args[:7])
	if err != nil {
		return err
	}
	f.SrcName = optionalName(args[7])
	f.DstName = optionalName(args[8])
	return h.runQuery(ctx, f)
}

// querysrc lists the caller's sent parcels; the last argument is the recipient.
func (h *Handlers) querySent(ctx context.Context, args []string) error {
	f, err := parseFilter(models.QueryAsSender, args[:7])
	if err != nil {
		return err
	}
	f.DstName = optionalName(args[7])
	return h.runQuery(ctx, f)
}

// querydst lists the caller's incoming parcels; the last argument is the sender.
func (h *Handlers) queryReceived(ctx context.Context, args []string) error {
	f, err := parseFilter(models.QueryAsReceiver, args[:7])
	if err != nil {
		return err
	}
	f.SrcName = optionalName(args[7])
	return h.runQuery(ctx, f)
}

// find takes a JSON filter and prints the matches as JSON, one per line.
func (h *Handlers) find(ctx context.Context, args []string) error {
	c, err := h.current()
	if err != nil {
		return err
	}
	f, err := query.DecodeFilter([]byte(args[0]))
	if err != nil {
		return err
	}
	parcels, err := h.service.QueryParcels(ctx, c, f)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(h.out)
	for _, p := range parcels {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	fmt.Fprintf(h.out, "%d parcel(s)\n", len(parcels))
	return nil
}

func (h *Handlers) runQuery(ctx context.Context, f models.ParcelFilter) error {
	c, err := h.current()
	if err != nil {
		return err
	}
	parcels, err := h.service.QueryParcels(ctx, c, f)
	if err != nil {
		return err
	}
	return h.renderParcels(parcels)
}

// renderParcels writes parcels as an aligned table, oldest first.
func (h *Handlers) renderParcels(parcels []models.Parcel) error {
	if len(parcels) == 0 {
		fmt.Fprintln(h.out, "no parcels")
		return nil
	}

	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOST\tSTATE\tSENT\tRECEIVED\tFROM\tTO\tDESCRIPTION")
	for _, p := range parcels {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID,
			h.printer.Sprintf("%d", p.Cost),
			p.State,
			p.SendingDate,
			p.ReceivingDate,
			p.SrcName,
			p.DstName,
			p.Description,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(h.out, "%d parcel(s)\n", len(parcels))
	return nil
}

// parseFilter reads <id> <sendY> <sendM> <sendD> <recvY> <recvM> <recvD>.
func parseFilter(mode models.QueryMode, args []string) (models.ParcelFilter, error) {
	f := models.ParcelFilter{Mode: mode}

	if args[0] != absent {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return f, fmt.Errorf("parcel id must be an integer or %s, got %q", absent, args[0])
		}
		f.ID = &id
	}

	targets := []struct {
		name string
		dst  **int
	}{
		{"sending year", &f.SendingYear},
		{"sending month", &f.SendingMonth},
		{"sending day", &f.SendingDay},
		{"receiving year", &f.ReceivingYear},
		{"receiving month", &f.ReceivingMonth},
		{"receiving day", &f.ReceivingDay},
	}
	for i, t := range targets {
		v, err := optionalInt(t.name, args[i+1])
		if err != nil {
			return f, err
		}
		*t.dst = v
	}
	return f, nil
}

func optionalInt(name, s string) (*int, error) {
	if s == absent {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer or %s, got %q", name, absent, s)
	}
	return &v, nil
}

func optionalName(s string) *string {
	if s == absent {
		return nil
	}
	return &s
}

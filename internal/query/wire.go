package query

import (
	"encoding/json"

	"parcel-tracker/internal/apperrors"
	"parcel-tracker/internal/models"
)

type wireFilter struct {
	Type           *int    `json:"type"`
	ID             *int64  `json:"id"`
	SendingYear    *int    `json:"sendingTime_Year"`
	SendingMonth   *int    `json:"sendingTime_Month"`
	SendingDay     *int    `json:"sendingTime_Day"`
	ReceivingYear  *int    `json:"receivingTime_Year"`
	ReceivingMonth *int    `json:"receivingTime_Month"`
	ReceivingDay   *int    `json:"receivingTime_Day"`
	SrcName        *string `json:"srcName"`
	DstName        *string `json:"dstName"`
}

// DecodeFilter parses the JSON filter shape. Legacy "absent" markers (-1 for
// numbers, "" for names) are read as omitted fields.
func DecodeFilter(data []byte) (models.ParcelFilter, error) {
	var w wireFilter
	if err := json.Unmarshal(data, &w); err != nil {
		return models.ParcelFilter{}, apperrors.Wrap(apperrors.CodeUnknownFilterType, "malformed filter", err)
	}
	if w.Type == nil || !models.QueryMode(*w.Type).Valid() {
		return models.ParcelFilter{}, ErrUnknownFilterType
	}

	f := models.ParcelFilter{
		Mode:           models.QueryMode(*w.Type),
		SendingYear:    present(w.SendingYear),
		SendingMonth:   present(w.SendingMonth),
		SendingDay:     present(w.SendingDay),
		ReceivingYear:  present(w.ReceivingYear),
		ReceivingMonth: present(w.ReceivingMonth),
		ReceivingDay:   present(w.ReceivingDay),
		SrcName:        presentName(w.SrcName),
		DstName:        presentName(w.DstName),
	}
	if w.ID != nil && *w.ID != -1 {
		f.ID = w.ID
	}
	return f, nil
}

func present(v *int) *int {
	if v == nil || *v == -1 {
		return nil
	}
	return v
}

func presentName(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

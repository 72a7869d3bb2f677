package localstore

import (
	"encoding/json"
	"fmt"

	"github.com/ardiutama/Piutang/internal/core"
)

// Snapshot keys, one per record list.
const (
	KeyReceivables = "receivables"
	KeyRevenues    = "revenues"
)

type receivableRow struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Total       int64  `json:"total"`
	Paid        int64  `json:"paid"`
	DueDate     string `json:"due_date,omitempty"`
}

type revenueRow struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Date        string `json:"date,omitempty"`
}

func encodeReceivables(in []core.Receivable) ([]byte, error) {
	rows := make([]receivableRow, len(in))
	for i, r := range in {
		rows[i] = receivableRow{
			ID:          r.ID,
			Description: r.Description,
			Total:       r.Total.Units,
			Paid:        r.Paid.Units,
			DueDate:     r.DueDate.String(),
		}
	}
	return json.Marshal(rows)
}

func decodeReceivables(data []byte) ([]core.Receivable, error) {
	var rows []receivableRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode receivables snapshot: %w", err)
	}
	out := make([]core.Receivable, len(rows))
	for i, row := range rows {
		due, err := core.ParseDate(row.DueDate)
		if err != nil {
			return nil, fmt.Errorf("receivable %s: %w", row.ID, err)
		}
		out[i] = core.Receivable{
			ID:          row.ID,
			Description: row.Description,
			Total:       core.Money{Units: row.Total},
			Paid:        core.Money{Units: row.Paid},
			DueDate:     due,
		}
	}
	return out, nil
}

func encodeRevenues(in []core.Revenue) ([]byte, error) {
	rows := make([]revenueRow, len(in))
	for i, v := range in {
		rows[i] = revenueRow{
			ID:          v.ID,
			Description: v.Description,
			Amount:      v.Amount.Units,
			Date:        v.Date.String(),
		}
	}
	return json.Marshal(rows)
}

func decodeRevenues(data []byte) ([]core.Revenue, error) {
	var rows []revenueRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode revenues snapshot: %w", err)
	}
	out := make([]core.Revenue, len(rows))
	for i, row := range rows {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("revenue %s: %w", row.ID, err)
		}
		out[i] = core.Revenue{
			ID:          row.ID,
			Description: row.Description,
			Amount:      core.Money{Units: row.Amount},
			Date:        date,
		}
	}
	return out, nil
}

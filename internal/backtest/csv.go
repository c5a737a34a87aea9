package backtest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

var fillsHeader = []string{
	"index",
	"tick_index",
	"timestamp",
	"order_id",
	"placed_at",
	"side",
	"kind",
	"level",
	"price",
	"qty",
	"fee_paid",
	"pnl",
	"balance",
	"position_size",
	"position_price",
	"equity",
}

// WriteFills writes fills as CSV, one row per fill in ledger order.
func WriteFills(out io.Writer, fills []Fill) error {
	w := csv.NewWriter(out)
	if err := w.Write(fillsHeader); err != nil {
		return err
	}

	row := make([]string, len(fillsHeader))
	for _, f := range fills {
		row[0] = strconv.Itoa(f.Index)
		row[1] = strconv.Itoa(f.TickIndex)
		row[2] = strconv.FormatInt(f.Timestamp, 10)
		row[3] = strconv.FormatUint(f.OrderID, 10)
		row[4] = strconv.FormatInt(f.PlacedAt, 10)
		row[5] = string(f.Side)
		row[6] = string(f.Kind)
		row[7] = strconv.Itoa(f.Level)
		row[8] = fmtFloat(f.Price)
		row[9] = fmtFloat(f.Qty)
		row[10] = fmtFloat(f.FeePaid)
		row[11] = fmtFloat(f.PNL)
		row[12] = fmtFloat(f.BalanceAfter)
		row[13] = fmtFloat(f.PositionAfter)
		row[14] = fmtFloat(f.PositionPriceAfter)
		row[15] = fmtFloat(f.EquityAfter)
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func WriteFillsCSV(path string, fills []Fill) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteFills(f, fills); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

package feature

import (
	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
)

func (c *Computer) computeContextual(features map[string]float64, txn *transaction.Transaction) {
	ts := txn.Timestamp.UTC()

	// Monday=0..Sunday=6, the numbering the model was trained on.
	dayOfWeek := (int(ts.Weekday()) + 6) % 7

	features[TimeOfDay] = float64(ts.Hour())
	features[DayOfWeek] = float64(dayOfWeek)
	features[IsWeekend] = boolToFloat(dayOfWeek >= 5)
	features[IsHoliday] = boolToFloat(c.lists.Holidays[ts.Format("01-02")])
	features[ShippingAddressMismatch] = boolToFloat(txn.ShippingMismatch())
}

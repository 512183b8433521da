package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewRevenueReport(t *testing.T) {
	gross := decimal.RequireFromString("10000.00")
	rep := NewRevenueReport(9, gross, 4, decimal.RequireFromString("5"))

	assert.Equal(t, int64(9), rep.SellerID)
	assert.Equal(t, 4, rep.Completed)
	assert.True(t, rep.Fee.Equal(decimal.RequireFromString("500.00")), "fee = %s", rep.Fee)
	assert.True(t, rep.Net.Equal(decimal.RequireFromString("9500.00")), "net = %s", rep.Net)
}

func TestNewRevenueReportRoundsFeeToCents(t *testing.T) {
	gross := decimal.RequireFromString("99.99")
	rep := NewRevenueReport(1, gross, 1, decimal.RequireFromString("7.5"))

	// 99.99 * 7.5% = 7.49925, rounded half up
	assert.True(t, rep.Fee.Equal(decimal.RequireFromString("7.50")), "fee = %s", rep.Fee)
	assert.True(t, rep.Net.Equal(decimal.RequireFromString("92.49")), "net = %s", rep.Net)
}

func TestNewRevenueReportZeroGross(t *testing.T) {
	rep := NewRevenueReport(2, decimal.Zero, 0, decimal.RequireFromString("5"))
	assert.True(t, rep.Fee.IsZero())
	assert.True(t, rep.Net.IsZero())
}

package pos

import (
	"context"
	"errors"
	"testing"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/desims/tokobangunansaya/internal/receipt"
	"github.com/desims/tokobangunansaya/internal/report"
	"github.com/desims/tokobangunansaya/internal/repo"
	"github.com/desims/tokobangunansaya/internal/sales"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperation(t *testing.T) {
	for _, op := range Operations() {
		got, err := ParseOperation(string(op))
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}

	got, err := ParseOperation(" Daily-Revenue ")
	require.NoError(t, err)
	assert.Equal(t, OpDailyRevenue, got)

	_, err = ParseOperation("refund")
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestDispatchUnknownOperation(t *testing.T) {
	local, _, _ := newTestLocal(t)
	d := NewDispatcher(local, nil)

	_, err := d.Dispatch(context.Background(), Operation("refund"), nil)
	assert.ErrorIs(t, err, ErrUnknownOperation)
	assert.Equal(t, CodeInvalidArgument, ErrorCode(err))
}

func TestDispatchCashierFlow(t *testing.T) {
	local, _, _ := newTestLocal(t)
	d := NewDispatcher(local, nil)
	ctx := context.Background()

	res, err := d.Dispatch(ctx, OpAddItem, map[string]string{
		"code":       "CEM01",
		"name":       "Cement 40kg",
		"unit":       "sak",
		"cost_price": "50,000",
		"sale_price": "65000",
		"quantity":   "100",
	})
	require.NoError(t, err)
	assert.Equal(t, OpAddItem, res.Op)
	assert.Equal(t, "Item CEM01 (Cement 40kg) added with 100 sak in stock", res.Message)

	res, err = d.Dispatch(ctx, OpSell, map[string]string{"code": "CEM01", "quantity": "10"})
	require.NoError(t, err)
	assert.Equal(t, "Sold 10 sak Cement 40kg, total Rp 650,000, 90 left in stock", res.Message)
	sale, ok := res.Data.(*db.Sale)
	require.True(t, ok)

	res, err = d.Dispatch(ctx, OpListItems, nil)
	require.NoError(t, err)
	items := res.Data.([]db.ItemSummary)
	require.Len(t, items, 1)
	assert.Equal(t, int64(90), items[0].Quantity)

	res, err = d.Dispatch(ctx, OpListSales, nil)
	require.NoError(t, err)
	assert.Equal(t, "1 sales", res.Message)

	res, err = d.Dispatch(ctx, OpDailyRevenue, nil)
	require.NoError(t, err)
	days := res.Data.([]report.DailyRevenue)
	require.Len(t, days, 1)
	assert.True(t, decimal.NewFromInt(650000).Equal(days[0].Total))

	res, err = d.Dispatch(ctx, OpRenderReceipt, map[string]string{"sale_id": "1"})
	require.NoError(t, err)
	doc := res.Data.(*receipt.Document)
	assert.Equal(t, "Receipt "+doc.Name, res.Message)
	assert.NotZero(t, sale.ID)
}

func TestDispatchRejectsBadFields(t *testing.T) {
	local, _, _ := newTestLocal(t)
	d := NewDispatcher(local, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		op   Operation
		args map[string]string
	}{
		{"missing code", OpAddItem, map[string]string{"name": "x", "cost_price": "1", "sale_price": "1", "quantity": "1"}},
		{"bad price", OpAddItem, map[string]string{"code": "A", "name": "x", "cost_price": "murah", "sale_price": "1", "quantity": "1"}},
		{"fractional quantity", OpAddItem, map[string]string{"code": "A", "name": "x", "cost_price": "1", "sale_price": "1", "quantity": "1.5"}},
		{"sell without quantity", OpSell, map[string]string{"code": "A"}},
		{"sell text quantity", OpSell, map[string]string{"code": "A", "quantity": "ten"}},
		{"receipt without id", OpRenderReceipt, map[string]string{}},
		{"receipt zero id", OpRenderReceipt, map[string]string{"sale_id": "0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.Dispatch(ctx, tc.op, tc.args)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Equal(t, CodeInvalidArgument, ErrorCode(err))
		})
	}
}

func TestDispatchSurfacesDomainErrors(t *testing.T) {
	local, _, _ := newTestLocal(t)
	d := NewDispatcher(local, nil)
	ctx := context.Background()

	_, err := d.Dispatch(ctx, OpSell, map[string]string{"code": "NOPE", "quantity": "1"})
	assert.ErrorIs(t, err, repo.ErrItemNotFound)

	_, err = d.Dispatch(ctx, OpSell, map[string]string{"code": "NOPE", "quantity": "0"})
	assert.ErrorIs(t, err, sales.ErrInvalidQuantity)

	_, err = d.Dispatch(ctx, OpRenderReceipt, map[string]string{"sale_id": "9"})
	assert.ErrorIs(t, err, repo.ErrSaleNotFound)
}

type brokenBackend struct{ Backend }

func (brokenBackend) ListItems(ctx context.Context) ([]db.ItemSummary, error) {
	return nil, errors.New("database is locked")
}

func TestDispatchStorageFailureIsInternal(t *testing.T) {
	d := NewDispatcher(brokenBackend{}, nil)

	_, err := d.Dispatch(context.Background(), OpListItems, nil)
	require.Error(t, err)
	assert.Equal(t, CodeInternal, ErrorCode(err))
	assert.Equal(t, "Could not complete the request, please try again", Describe(err))
}

package pos

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/desims/tokobangunansaya/internal/events"
	"github.com/desims/tokobangunansaya/internal/metrics"
	"github.com/desims/tokobangunansaya/internal/repo"
	"github.com/desims/tokobangunansaya/internal/sales"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBus struct {
	events.Nop
	mu    sync.Mutex
	items []string
	sales []uint
	err   error
}

func (b *recordingBus) PublishItemCreated(ctx context.Context, item *db.Item) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, item.Code)
	return b.err
}

func (b *recordingBus) PublishSaleCompleted(ctx context.Context, sale *db.Sale) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sales = append(b.sales, sale.ID)
	return b.err
}

func (b *recordingBus) publishedSales() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sales)
}

var (
	wib      = time.FixedZone("WIB", 7*60*60)
	saleTime = time.Date(2026, 10, 18, 2, 30, 0, 0, time.UTC)
)

func cementForm() NewItem {
	return NewItem{
		Code:      "CEM01",
		Name:      "Cement 40kg",
		Unit:      "sak",
		CostPrice: decimal.NewFromInt(50000),
		SalePrice: decimal.NewFromInt(65000),
		Quantity:  100,
	}
}

func newTestLocal(t *testing.T) (*Local, *recordingBus, *metrics.Metrics) {
	database, err := db.Connect(db.Options{Driver: "sqlite", DSN: "file::memory:?_foreign_keys=on", LogLevel: "error"})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database))

	bus := &recordingBus{}
	m := metrics.New()
	local := NewLocal(database, Settings{
		StoreName:     "TOKO BANGUNAN MAKMUR JAYA",
		ReceiptFooter: "Terima kasih sudah berbelanja!",
		Location:      wib,
	}, bus, m, nil, sales.WithClock(func() time.Time { return saleTime }))
	return local, bus, m
}

func TestLocalAddItem(t *testing.T) {
	local, bus, m := newTestLocal(t)
	ctx := context.Background()

	item, err := local.AddItem(ctx, cementForm())
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, []string{"CEM01"}, bus.items)

	_, err = local.AddItem(ctx, cementForm())
	assert.ErrorIs(t, err, repo.ErrDuplicateCode)
	assert.Equal(t, []string{"CEM01"}, bus.items)

	items, err := local.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(100), items[0].Quantity)

	expected := `
# HELP tokobangunan_items_created_total Catalog entries created.
# TYPE tokobangunan_items_created_total counter
tokobangunan_items_created_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "tokobangunan_items_created_total"))
}

func TestLocalAddItemPublishFailureStillSucceeds(t *testing.T) {
	local, bus, _ := newTestLocal(t)
	bus.err = errors.New("broker down")

	_, err := local.AddItem(context.Background(), cementForm())
	require.NoError(t, err)
}

func TestLocalSellAndReports(t *testing.T) {
	local, bus, _ := newTestLocal(t)
	ctx := context.Background()
	_, err := local.AddItem(ctx, cementForm())
	require.NoError(t, err)

	first, err := local.Sell(ctx, "CEM01", 10)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(650000).Equal(first.Total))
	_, err = local.Sell(ctx, "CEM01", 2)
	require.NoError(t, err)

	_, err = local.Sell(ctx, "CEM01", 1000)
	assert.ErrorIs(t, err, repo.ErrInsufficientStock)

	list, err := local.ListSales(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	days, err := local.DailyRevenue(ctx)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2026-10-18", days[0].Date)
	assert.True(t, decimal.NewFromInt(780000).Equal(days[0].Total))

	assert.Eventually(t, func() bool { return bus.publishedSales() == 2 }, time.Second, 10*time.Millisecond)
}

func TestLocalReceipt(t *testing.T) {
	local, _, _ := newTestLocal(t)
	ctx := context.Background()
	_, err := local.AddItem(ctx, cementForm())
	require.NoError(t, err)

	sale, err := local.Sell(ctx, "CEM01", 10)
	require.NoError(t, err)

	doc, err := local.Receipt(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "struk_2026-10-18_09-30-00.pdf", doc.Name)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-")))
	assert.Contains(t, string(doc.Data), "Cement 40kg")

	_, err = local.Receipt(ctx, sale.ID+100)
	assert.ErrorIs(t, err, repo.ErrSaleNotFound)
}

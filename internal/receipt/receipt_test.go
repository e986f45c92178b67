package receipt

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*60*60)

func cementSale() *db.Sale {
	return &db.Sale{
		ID:        1,
		SoldAt:    time.Date(2026, 10, 18, 2, 30, 5, 0, time.UTC),
		ItemCode:  "CEM01",
		Quantity:  10,
		UnitPrice: decimal.NewFromInt(65000),
		Total:     decimal.NewFromInt(650000),
		Item: &db.Item{
			Code:      "CEM01",
			Name:      "Cement 40kg",
			Unit:      "sak",
			SalePrice: decimal.NewFromInt(65000),
			Quantity:  90,
		},
	}
}

func newTestRenderer() *Renderer {
	return NewRenderer("TOKO BANGUNAN MAKMUR JAYA", "Terima kasih sudah berbelanja!", wib)
}

func TestLinesGolden(t *testing.T) {
	lines := newTestRenderer().Lines(cementSale())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "cement_sale", []byte(strings.Join(lines, "\n")+"\n"))
}

func TestLinesFractionalAmounts(t *testing.T) {
	sale := cementSale()
	sale.Quantity = 3
	sale.UnitPrice = decimal.RequireFromString("1250.50")
	sale.Total = decimal.RequireFromString("3751.50")

	lines := newTestRenderer().Lines(sale)
	assert.Equal(t, "Jumlah : 3 x Rp 1,250.50", lines[5])
	assert.Equal(t, "TOTAL  : Rp 3,751.50", lines[7])
}

func TestLinesWithoutItemFallsBackToCode(t *testing.T) {
	sale := cementSale()
	sale.Item = nil

	lines := newTestRenderer().Lines(sale)
	assert.Equal(t, "Barang : CEM01", lines[3])
}

func TestFileName(t *testing.T) {
	r := newTestRenderer()
	assert.Equal(t, "struk_2026-10-18_09-30-05.pdf", r.FileName(cementSale()))

	utc := NewRenderer("X", "Y", nil)
	assert.Equal(t, "struk_2026-10-18_02-30-05.pdf", utc.FileName(cementSale()))
}

func TestRender(t *testing.T) {
	doc, err := newTestRenderer().Render(cementSale())
	require.NoError(t, err)

	assert.Equal(t, "struk_2026-10-18_09-30-05.pdf", doc.Name)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-")))
	// uncompressed content streams keep the text searchable
	assert.Contains(t, string(doc.Data), "TOKO BANGUNAN MAKMUR JAYA")
	assert.Contains(t, string(doc.Data), "TOTAL  : Rp 650,000")
	assert.Contains(t, string(doc.Data), "Terima kasih sudah berbelanja!")
}

func TestRenderIsDeterministic(t *testing.T) {
	r := newTestRenderer()

	first, err := r.Render(cementSale())
	require.NoError(t, err)
	second, err := r.Render(cementSale())
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
}

func TestRenderNilSale(t *testing.T) {
	_, err := newTestRenderer().Render(nil)
	assert.ErrorIs(t, err, ErrNoSale)
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "receipts")
	doc, err := newTestRenderer().Render(cementSale())
	require.NoError(t, err)

	path, err := Save(dir, doc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "struk_2026-10-18_09-30-05.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Data, data)
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"0":          "0",
		"65000":      "65,000",
		"1250000":    "1,250,000",
		"65000.00":   "65,000",
		"1250.5":     "1,250.50",
		"1234567.89": "1,234,567.89",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatAmount(decimal.RequireFromString(in)), in)
	}
}

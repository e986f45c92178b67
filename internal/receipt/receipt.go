package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// TimestampLayout is how the sale time is printed and named
	TimestampLayout = "2006-01-02 15:04:05"
	ContentType     = "application/pdf"

	separator = "------------------------------"

	marginLeft = 50.0
	firstLine  = 215.0
	lineHeight = 15.0
)

// ErrNoSale is returned when there is nothing to print
var ErrNoSale = errors.New("no sale to render")

// Document is a rendered receipt
type Document struct {
	Name string
	Data []byte
}

// Renderer turns a completed sale into a one page A5 receipt
type Renderer struct {
	StoreName string
	Footer    string
	Location  *time.Location
}

// NewRenderer creates a renderer. Timestamps are printed in loc.
func NewRenderer(storeName, footer string, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{
		StoreName: storeName,
		Footer:    footer,
		Location:  loc,
	}
}

// FileName is struk_<timestamp>.pdf with the timestamp made filesystem safe
func (r *Renderer) FileName(sale *db.Sale) string {
	ts := r.timestamp(sale)
	ts = strings.ReplaceAll(ts, ":", "-")
	ts = strings.ReplaceAll(ts, " ", "_")
	return "struk_" + ts + ".pdf"
}

// Lines returns the text of the receipt, top to bottom
func (r *Renderer) Lines(sale *db.Sale) []string {
	name := sale.ItemName()
	if name == "" {
		name = sale.ItemCode
	}
	return []string{
		r.StoreName,
		"Tanggal: " + r.timestamp(sale),
		separator,
		"Barang : " + name,
		"Kode   : " + sale.ItemCode,
		fmt.Sprintf("Jumlah : %d x Rp %s", sale.Quantity, FormatAmount(sale.UnitPrice)),
		separator,
		"TOTAL  : Rp " + FormatAmount(sale.Total),
		separator,
		r.Footer,
	}
}

// Render lays the receipt out on an A5 page. The same sale always yields
// the same bytes.
func (r *Renderer) Render(sale *db.Sale) (*Document, error) {
	if sale == nil {
		return nil, ErrNoSale
	}

	pdf := fpdf.New("P", "pt", "A5", "")
	pdf.SetCompression(false)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(sale.SoldAt.UTC())
	pdf.SetModificationDate(sale.SoldAt.UTC())
	pdf.SetTitle("Struk "+r.timestamp(sale), false)
	pdf.SetCreator(r.StoreName, false)
	pdf.AddPage()
	pdf.SetFont("Courier", "", 11)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	y := firstLine
	for i, line := range r.Lines(sale) {
		if i == 0 {
			pdf.SetFont("Courier", "B", 12)
		}
		pdf.Text(marginLeft, y, tr(line))
		if i == 0 {
			pdf.SetFont("Courier", "", 11)
		}
		y += lineHeight
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt for sale %d: %w", sale.ID, err)
	}

	return &Document{Name: r.FileName(sale), Data: buf.Bytes()}, nil
}

// Save writes doc into dir, creating it if needed, and returns the path
func Save(dir string, doc *Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create receipt dir: %w", err)
	}
	path := filepath.Join(dir, doc.Name)
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}
	return path, nil
}

func (r *Renderer) timestamp(sale *db.Sale) string {
	return sale.SoldAt.In(r.Location).Format(TimestampLayout)
}

// FormatAmount prints rupiah with thousands separators, cents only when present
func FormatAmount(d decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	if d.Equal(d.Truncate(0)) {
		return p.Sprintf("%d", d.IntPart())
	}
	return p.Sprintf("%.2f", d.InexactFloat64())
}

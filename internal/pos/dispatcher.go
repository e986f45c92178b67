package pos

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/desims/tokobangunansaya/internal/receipt"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Operation enumerates what a cashier can do
type Operation string

const (
	OpAddItem       Operation = "add_item"
	OpListItems     Operation = "list_items"
	OpSell          Operation = "sell"
	OpListSales     Operation = "list_sales"
	OpDailyRevenue  Operation = "daily_revenue"
	OpRenderReceipt Operation = "render_receipt"
)

// Operations lists every supported operation
func Operations() []Operation {
	return []Operation{OpAddItem, OpListItems, OpSell, OpListSales, OpDailyRevenue, OpRenderReceipt}
}

// ParseOperation accepts an operation name, ignoring case and dashes
func ParseOperation(name string) (Operation, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, op := range Operations() {
		if string(op) == normalized {
			return op, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}

// Result is the outcome of one dispatched operation
type Result struct {
	Op      Operation   `json:"op"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type handler func(ctx context.Context, args map[string]string) (*Result, error)

// Dispatcher turns string form fields into Backend calls
type Dispatcher struct {
	backend  Backend
	log      *zap.Logger
	handlers map[Operation]handler
}

// NewDispatcher creates a dispatcher over backend
func NewDispatcher(backend Backend, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{backend: backend, log: log}
	d.handlers = map[Operation]handler{
		OpAddItem:       d.addItem,
		OpListItems:     d.listItems,
		OpSell:          d.sell,
		OpListSales:     d.listSales,
		OpDailyRevenue:  d.dailyRevenue,
		OpRenderReceipt: d.renderReceipt,
	}
	return d
}

// Dispatch runs op with the given form fields
func (d *Dispatcher) Dispatch(ctx context.Context, op Operation, args map[string]string) (*Result, error) {
	h, ok := d.handlers[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}

	d.log.Debug("Dispatching operation", zap.String("op", string(op)), zap.Strings("fields", fieldNames(args)))

	result, err := h(ctx, args)
	if err != nil {
		d.log.Info("Operation failed",
			zap.String("op", string(op)),
			zap.String("code", ErrorCode(err)),
			zap.Error(err),
		)
		return nil, err
	}
	result.Op = op
	return result, nil
}

func (d *Dispatcher) addItem(ctx context.Context, args map[string]string) (*Result, error) {
	form, err := parseNewItem(args)
	if err != nil {
		return nil, err
	}
	item, err := d.backend.AddItem(ctx, form)
	if err != nil {
		return nil, err
	}
	return &Result{
		Message: fmt.Sprintf("Item %s (%s) added with %d %s in stock", item.Code, item.Name, item.Quantity, item.Unit),
		Data:    item,
	}, nil
}

func (d *Dispatcher) listItems(ctx context.Context, args map[string]string) (*Result, error) {
	items, err := d.backend.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("%d items", len(items)), Data: items}, nil
}

func (d *Dispatcher) sell(ctx context.Context, args map[string]string) (*Result, error) {
	code, err := required(args, "code")
	if err != nil {
		return nil, err
	}
	quantity, err := parseInt(args, "quantity")
	if err != nil {
		return nil, err
	}

	sale, err := d.backend.Sell(ctx, code, quantity)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Sold %d x %s, total Rp %s", sale.Quantity, sale.ItemCode, receipt.FormatAmount(sale.Total))
	if sale.Item != nil {
		message = fmt.Sprintf("Sold %d %s %s, total Rp %s, %d left in stock",
			sale.Quantity, sale.Item.Unit, sale.Item.Name, receipt.FormatAmount(sale.Total), sale.Item.Quantity)
	}
	return &Result{Message: message, Data: sale}, nil
}

func (d *Dispatcher) listSales(ctx context.Context, args map[string]string) (*Result, error) {
	list, err := d.backend.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("%d sales", len(list)), Data: list}, nil
}

func (d *Dispatcher) dailyRevenue(ctx context.Context, args map[string]string) (*Result, error) {
	days, err := d.backend.DailyRevenue(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("%d days with sales", len(days)), Data: days}, nil
}

func (d *Dispatcher) renderReceipt(ctx context.Context, args map[string]string) (*Result, error) {
	id, err := parseInt(args, "sale_id")
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: sale_id must be positive", ErrInvalidArgument)
	}

	doc, err := d.backend.Receipt(ctx, uint(id))
	if err != nil {
		return nil, err
	}
	return &Result{Message: "Receipt " + doc.Name, Data: doc}, nil
}

func parseNewItem(args map[string]string) (NewItem, error) {
	var form NewItem
	var err error

	if form.Code, err = required(args, "code"); err != nil {
		return form, err
	}
	if form.Name, err = required(args, "name"); err != nil {
		return form, err
	}
	form.Unit = strings.TrimSpace(args["unit"])
	if form.CostPrice, err = parseMoney(args, "cost_price"); err != nil {
		return form, err
	}
	if form.SalePrice, err = parseMoney(args, "sale_price"); err != nil {
		return form, err
	}
	if form.Quantity, err = parseInt(args, "quantity"); err != nil {
		return form, err
	}
	return form, nil
}

func required(args map[string]string, field string) (string, error) {
	value := strings.TrimSpace(args[field])
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidArgument, field)
	}
	return value, nil
}

func parseInt(args map[string]string, field string) (int64, error) {
	raw, err := required(args, field)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a whole number, got %q", ErrInvalidArgument, field, raw)
	}
	return n, nil
}

// parseMoney accepts plain numbers and thousands separated ones like 65,000
func parseMoney(args map[string]string, field string) (decimal.Decimal, error) {
	raw, err := required(args, field)
	if err != nil {
		return decimal.Zero, err
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidArgument, field, raw)
	}
	return amount, nil
}

func fieldNames(args map[string]string) []string {
	names := make([]string, 0, len(args))
	for k := range args {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

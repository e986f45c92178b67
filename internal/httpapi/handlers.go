package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/desims/tokobangunansaya/internal/pos"
	"github.com/desims/tokobangunansaya/internal/receipt"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SellRequest is the body of POST /sales
type SellRequest struct {
	Code     string `json:"code"`
	Quantity int64  `json:"quantity"`
}

// Handler adapts pos.Backend to HTTP
type Handler struct {
	backend pos.Backend
	logger  *zap.Logger
}

// NewHandler constructs the HTTP handler adapter
func NewHandler(backend pos.Backend, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{backend: backend, logger: logger}
}

// AddItem handles POST /items
func (h *Handler) AddItem(c *gin.Context) {
	var form pos.NewItem
	if err := c.ShouldBindJSON(&form); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", pos.ErrInvalidArgument, err))
		return
	}

	item, err := h.backend.AddItem(c.Request.Context(), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListItems handles GET /items
func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.backend.ListItems(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Sell handles POST /sales
func (h *Handler) Sell(c *gin.Context) {
	var req SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", pos.ErrInvalidArgument, err))
		return
	}

	sale, err := h.backend.Sell(c.Request.Context(), req.Code, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// ListSales handles GET /sales
func (h *Handler) ListSales(c *gin.Context) {
	sales, err := h.backend.ListSales(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

// DailyRevenue handles GET /reports/daily
func (h *Handler) DailyRevenue(c *gin.Context) {
	days, err := h.backend.DailyRevenue(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

// Receipt handles GET /sales/:id/receipt and answers with the PDF
func (h *Handler) Receipt(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		h.fail(c, fmt.Errorf("%w: sale id must be a positive number", pos.ErrInvalidArgument))
		return
	}

	doc, err := h.backend.Receipt(c.Request.Context(), uint(id))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Name))
	c.Data(http.StatusOK, receipt.ContentType, doc.Data)
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := pos.ErrorCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, ErrorResponse{Error: pos.Describe(err), Code: code})
}

func statusFor(code string) int {
	switch code {
	case pos.CodeInvalidArgument:
		return http.StatusBadRequest
	case pos.CodeItemNotFound, pos.CodeSaleNotFound:
		return http.StatusNotFound
	case pos.CodeDuplicateCode, pos.CodeInsufficientStock:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/andresuchdata/quotemanager/internal/domain"
	"github.com/andresuchdata/quotemanager/internal/export"
	"github.com/andresuchdata/quotemanager/internal/service"
	"github.com/gin-gonic/gin"
)

type QuoteHandler struct {
	quotes *service.QuoteService
}

func NewQuoteHandler(quotes *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

func (h *QuoteHandler) ProductCost(c *gin.Context) {
	pc, err := h.quotes.ProductCost(c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductCostResponse(pc))
}

func (h *QuoteHandler) Producible(c *gin.Context) {
	report, err := h.quotes.Producible(c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProducibleResponse(report))
}

func (h *QuoteHandler) QuoteCost(c *gin.Context) {
	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	qc, err := h.quotes.QuoteCost(req.selection())
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newQuoteResponse(qc))
}

func (h *QuoteHandler) ShoppingList(c *gin.Context) {
	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	list, err := h.quotes.ShoppingList(req.selection())
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newShoppingListResponse(list))
}

// ExportShoppingList renders a shopping list as a download. POST takes the usual
// JSON body; GET takes repeated ?item=<productID>=<qty> parameters.
func (h *QuoteHandler) ExportShoppingList(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatXLSX)))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var items []domain.Selection
	if c.Request.Method == http.MethodGet {
		items, err = service.ParseItems(c.QueryArray("item"))
		if err != nil {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		var req SelectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}
		items = req.selection()
	}

	list, err := h.quotes.ShoppingList(items)
	if err != nil {
		serviceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteShoppingList(&buf, format, list); err != nil {
		serviceError(c, err)
		return
	}

	filename := fmt.Sprintf("shopping-list-%s%s", time.Now().Format("20060102-150405"), format.Extension())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

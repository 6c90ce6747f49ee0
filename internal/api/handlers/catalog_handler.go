package handlers

import (
	"net/http"
	"strconv"

	"github.com/andresuchdata/quotemanager/internal/costing"
	"github.com/andresuchdata/quotemanager/internal/service"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogs *service.CatalogService
	engine   *costing.Engine
}

func NewCatalogHandler(catalogs *service.CatalogService, engine *costing.Engine) *CatalogHandler {
	return &CatalogHandler{catalogs: catalogs, engine: engine}
}

// Health reports liveness together with the catalog state.
func (h *CatalogHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"catalog": h.catalogs.Status(),
	})
}

func (h *CatalogHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalogs.Status())
}

// Refresh reloads the catalog. ?force=true skips the row cache.
func (h *CatalogHandler) Refresh(c *gin.Context) {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "true"))

	if _, err := h.catalogs.Refresh(c.Request.Context(), force); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   err.Error(),
			"catalog": h.catalogs.Status(),
		})
		return
	}
	c.JSON(http.StatusOK, h.catalogs.Status())
}

func (h *CatalogHandler) ListMaterials(c *gin.Context) {
	materials := h.catalogs.Materials(c.Query("q"))
	resp := make([]MaterialResponse, 0, len(materials))
	for _, m := range materials {
		resp = append(resp, newMaterialResponse(m, h.engine))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) ReorderAlerts(c *gin.Context) {
	alerts := h.catalogs.ReorderAlerts()
	resp := make([]ShoppingLineResponse, 0, len(alerts))
	for _, e := range alerts {
		line := newShoppingLineResponse(e)
		line.UnitPrice = costing.Display(h.engine.PriceUnit(e.Material))
		resp = append(resp, line)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"products": h.catalogs.Products(c.Query("type")),
		"types":    h.catalogs.ProductTypes(),
	})
}

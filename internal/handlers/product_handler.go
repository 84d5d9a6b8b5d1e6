package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"storefront/internal/catalog"
	"storefront/internal/models"
)

type ProductHandler struct {
	catalog *catalog.Service
	log     zerolog.Logger
}

func NewProductHandler(svc *catalog.Service, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{catalog: svc, log: log}
}

// ListProducts lists active products unless active_only is given as anything but "true".
func (h *ProductHandler) ListProducts(c *gin.Context) {
	activeOnly := strings.EqualFold(c.DefaultQuery("active_only", "true"), "true")

	products, err := h.catalog.List(c.Request.Context(), catalog.ListFilter{
		ActiveOnly: activeOnly,
		Section:    c.Query("section"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	product, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var in models.NewProduct
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	id, err := h.catalog.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product_id": id})
}

// UpdateProduct merges the posted fields into the stored product.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if len(fields) == 0 {
		badRequest(c, "no fields to update")
		return
	}

	product, err := h.catalog.Update(c.Request.Context(), id, fields)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ProductHandler) ListSections(c *gin.Context) {
	sections, err := h.catalog.Sections(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sections": sections})
}

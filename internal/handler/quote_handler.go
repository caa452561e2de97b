package handler

import (
	"net/http"

	"customsfee/internal/service"
	"customsfee/pkg/response"

	"github.com/gin-gonic/gin"
)

type QuoteHandler struct {
	quoteService service.QuoteService
}

func NewQuoteHandler(quoteService service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

func (h *QuoteHandler) RegisterRoutes(router *gin.RouterGroup) {
	quotes := router.Group("/api/quotes")
	{
		// Storefronts call this per cart, so it is deliberately unauthenticated
		quotes.POST("/cart-fees", h.QuoteCartFees)
	}
}

// QuoteCartFees computes customs/import fee lines for a cart
// @Summary      Quote customs and import fees for a cart
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        request  body      service.QuoteCartFeesRequest  true  "Cart line items and shipment context"
// @Success      200      {object}  response.Response
// @Router       /api/quotes/cart-fees [post]
func (h *QuoteHandler) QuoteCartFees(c *gin.Context) {
	var req service.QuoteCartFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quote, err := h.quoteService.QuoteCartFees(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quote))
}

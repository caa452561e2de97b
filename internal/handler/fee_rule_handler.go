package handler

import (
	"net/http"

	"customsfee/internal/middleware"
	"customsfee/internal/service"
	"customsfee/pkg/pagination"
	"customsfee/pkg/response"

	"github.com/gin-gonic/gin"
)

type FeeRuleHandler struct {
	feeRuleService service.FeeRuleService
}

func NewFeeRuleHandler(feeRuleService service.FeeRuleService) *FeeRuleHandler {
	return &FeeRuleHandler{feeRuleService: feeRuleService}
}

func (h *FeeRuleHandler) RegisterRoutes(router *gin.RouterGroup) {
	rules := router.Group("/api/fee-rules")
	{
		rules.GET("", middleware.RequireRole("admin", "manager", "staff"), h.ListFeeRules)
		rules.GET("/:id", middleware.RequireRole("admin", "manager", "staff"), h.GetFeeRule)
		rules.POST("", middleware.RequireRole("admin", "manager"), h.CreateFeeRule)
		rules.PUT("/:id", middleware.RequireRole("admin", "manager"), h.UpdateFeeRule)
		rules.DELETE("/:id", middleware.RequireRole("admin", "manager"), h.DeleteFeeRule)
		rules.POST("/preview", middleware.RequireRole("admin", "manager", "staff"), h.PreviewFee)
	}
}

// ListFeeRules returns paginated fee rules ordered by priority
// @Summary      List fee rules
// @Tags         fee-rules
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default: 1)"
// @Param        limit  query     int  false  "Items per page (default: 20)"
// @Success      200    {object}  response.Response
// @Router       /api/fee-rules [get]
func (h *FeeRuleHandler) ListFeeRules(c *gin.Context) {
	params := pagination.Parse(c)

	rules, total, err := h.feeRuleService.GetFeeRules(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, rules, params.Page, params.Limit, total))
}

// GetFeeRule returns a single fee rule by id
// @Summary      Get fee rule
// @Tags         fee-rules
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Fee rule ID"
// @Success      200  {object}  response.Response
// @Router       /api/fee-rules/{id} [get]
func (h *FeeRuleHandler) GetFeeRule(c *gin.Context) {
	rule, err := h.feeRuleService.GetFeeRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

// CreateFeeRule creates a new fee rule
// @Summary      Create fee rule
// @Tags         fee-rules
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.FeeRuleRequest  true  "Fee rule payload"
// @Success      201      {object}  response.Response
// @Router       /api/fee-rules [post]
func (h *FeeRuleHandler) CreateFeeRule(c *gin.Context) {
	var req service.FeeRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.feeRuleService.CreateFeeRule(c.Request.Context(), req, middleware.UserIDFromContext(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rule))
}

// UpdateFeeRule updates an existing fee rule
// @Summary      Update fee rule
// @Tags         fee-rules
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Fee rule ID"
// @Param        request  body      service.FeeRuleRequest  true  "Fee rule payload"
// @Success      200      {object}  response.Response
// @Router       /api/fee-rules/{id} [put]
func (h *FeeRuleHandler) UpdateFeeRule(c *gin.Context) {
	var req service.FeeRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.feeRuleService.UpdateFeeRule(c.Request.Context(), c.Param("id"), req, middleware.UserIDFromContext(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

// DeleteFeeRule removes a fee rule
// @Summary      Delete fee rule
// @Tags         fee-rules
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Fee rule ID"
// @Success      200  {object}  response.Response
// @Router       /api/fee-rules/{id} [delete]
func (h *FeeRuleHandler) DeleteFeeRule(c *gin.Context) {
	if err := h.feeRuleService.DeleteFeeRule(c.Request.Context(), c.Param("id"), middleware.UserIDFromContext(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// PreviewFee evaluates a rule against a cart total without saving it
// @Summary      Preview fee for a draft rule
// @Tags         fee-rules
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.PreviewFeeRequest  true  "Draft rule and cart total"
// @Success      200      {object}  response.Response
// @Router       /api/fee-rules/preview [post]
func (h *FeeRuleHandler) PreviewFee(c *gin.Context) {
	var req service.PreviewFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	preview, err := h.feeRuleService.PreviewFee(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, preview))
}

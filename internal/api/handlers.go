package api

import (
	"deedledger/server/internal/ledger"
	"deedledger/server/internal/metrics"
	"deedledger/server/internal/models"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// IdentityHeader carries the caller's opaque identity. Authentication of
// that identity (wallets, signatures) is outside this service.
const IdentityHeader = "X-Caller-Identity"

type Handler struct {
	registry *ledger.Registry
	escrow   *ledger.Engine
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

type createPropertyRequest struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Location    string   `json:"location"`
	Documents   []string `json:"documents"`
}

type updatePropertyRequest struct {
	Price    int64 `json:"price"`
	IsActive *bool `json:"is_active" binding:"required"`
}

type purchaseRequest struct {
	SettlementID string `json:"settlement_id"`
	PropertyID   string `json:"property_id"`
	PaidValue    int64  `json:"paid_value"`
}

func NewHandler(registry *ledger.Registry, escrow *ledger.Engine, m *metrics.Metrics, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		registry: registry,
		escrow:   escrow,
		logger:   logger,
		metrics:  m,
	}
}

// statusFor maps a ledger error kind to an HTTP status. Unknown errors
// are treated as internal.
func statusFor(err error) int {
	switch ledger.KindOf(err) {
	case ledger.KindInvalidInput:
		return http.StatusBadRequest
	case ledger.KindUnauthorized:
		return http.StatusForbidden
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindDuplicateKey:
		return http.StatusConflict
	case ledger.KindInactiveListing, ledger.KindSelfPurchase, ledger.KindPaymentMismatch:
		return http.StatusUnprocessableEntity
	case ledger.KindTransferFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) renderError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}

	if kind := ledger.KindOf(err); kind != "" {
		body["kind"] = string(kind)
	}
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("Internal error")
		body["error"] = "internal error"
	}

	c.JSON(status, body)
}

func (h *Handler) countResult(operation string, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.Operations.WithLabelValues(operation).Inc()
	if err != nil {
		kind := string(ledger.KindOf(err))
		if kind == "" {
			kind = "internal"
		}
		h.metrics.Failures.WithLabelValues(operation, kind).Inc()
	}
}

func callerIdentity(c *gin.Context) models.Identity {
	return models.Identity(c.GetHeader(IdentityHeader))
}

func (h *Handler) CreateProperty(c *gin.Context) {
	var req createPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse create request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	caller := callerIdentity(c)
	if caller == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing " + IdentityHeader + " header"})
		return
	}

	property, err := h.registry.Create(ledger.CreateInput{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Location:    req.Location,
		Documents:   req.Documents,
	}, caller)
	h.countResult("create_property", err)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, property)
}

func (h *Handler) UpdateProperty(c *gin.Context) {
	var req updatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse update request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	caller := callerIdentity(c)
	if caller == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing " + IdentityHeader + " header"})
		return
	}

	property, err := h.registry.Update(c.Param("id"), req.Price, *req.IsActive, caller)
	h.countResult("update_property", err)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, property)
}

func (h *Handler) GetProperty(c *gin.Context) {
	property, err := h.registry.Get(c.Param("id"))
	h.countResult("get_property", err)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, property)
}

func (h *Handler) GetAllProperties(c *gin.Context) {
	properties, err := h.registry.ListAll()
	h.countResult("list_properties", err)
	if err != nil {
		h.renderError(c, err)
		return
	}

	if properties == nil {
		properties = []models.Property{}
	}
	c.JSON(http.StatusOK, properties)
}

func (h *Handler) GetActiveProperties(c *gin.Context) {
	properties, err := h.registry.ListActive()
	h.countResult("list_active_properties", err)
	if err != nil {
		h.renderError(c, err)
		return
	}

	if properties == nil {
		properties = []models.Property{}
	}
	c.JSON(http.StatusOK, properties)
}

func (h *Handler) Purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse purchase request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	buyer := callerIdentity(c)
	if buyer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing " + IdentityHeader + " header"})
		return
	}

	rec, err := h.escrow.Purchase(req.SettlementID, req.PropertyID, req.PaidValue, buyer)
	h.countResult("purchase", err)
	if err != nil {
		// The ledger has committed when the transfer fails downstream;
		// hand the record back alongside the error so the caller can
		// reconcile manually.
		if ledger.KindOf(err) == ledger.KindTransferFailed {
			c.JSON(statusFor(err), gin.H{
				"error":      err.Error(),
				"kind":       string(ledger.KindTransferFailed),
				"settlement": rec,
			})
			return
		}
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetSettlement(c *gin.Context) {
	rec, err := h.escrow.Settlement(c.Param("id"))
	h.countResult("get_settlement", err)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *Handler) GetAllSettlements(c *gin.Context) {
	settlements, err := h.escrow.Settlements()
	h.countResult("list_settlements", err)
	if err != nil {
		h.renderError(c, err)
		return
	}

	if settlements == nil {
		settlements = []models.Settlement{}
	}
	c.JSON(http.StatusOK, settlements)
}

package ledger

import (
	"deedledger/server/internal/events"
	"deedledger/server/internal/models"
	"deedledger/server/internal/payments"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Engine executes the atomic purchase transaction: validate payment,
// transfer ownership, append the settlement record, then signal the
// external value-transfer collaborator.
type Engine struct {
	registry   *Registry
	transferor payments.Transferor
	logger     *logrus.Logger
}

// NewEngine creates an escrow engine bound to a registry. transferor is
// the external collaborator that settles value between buyer and seller.
func NewEngine(registry *Registry, transferor payments.Transferor, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = registry.logger
	}

	return &Engine{
		registry:   registry,
		transferor: transferor,
		logger:     logger,
	}
}

// Purchase buys a listed property. Preconditions are checked in a fixed
// order so a failing call always reports the same kind: unknown property,
// inactive listing, self purchase, duplicate settlement ID, payment
// mismatch. On success the ownership transfer and settlement record commit
// as one unit before any external signal is sent.
//
// The returned error may be of kind settlement_transfer_failed, in which
// case the ledger HAS committed (the record is also returned) but the
// downstream value transfer failed and needs manual reconciliation.
func (e *Engine) Purchase(settlementID, propertyID string, paidValue int64, buyer models.Identity) (*models.Settlement, error) {
	// Blank identities or settlement IDs never enter the ledger; an empty
	// buyer would leave the property without an owner.
	if settlementID == "" {
		return nil, newError(KindInvalidInput, "settlement ID is required")
	}
	if buyer == "" {
		return nil, newError(KindInvalidInput, "buyer identity is required")
	}

	rec, seller, err := e.settle(settlementID, propertyID, paidValue, buyer)
	if err != nil {
		return nil, err
	}

	e.registry.publish(events.PropertySold{
		PropertyID:   rec.PropertyID,
		SettlementID: rec.ID,
		Buyer:        rec.Buyer,
		Seller:       rec.Seller,
		Value:        rec.Value,
		Timestamp:    rec.CreatedAt,
	})

	// The ledger commit above stands regardless of what happens next.
	// Payment is signalled outside the critical section so a slow or
	// failing collaborator never blocks other ledger operations.
	if err := e.transferor.Transfer(buyer, seller, paidValue); err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"settlement_id": rec.ID,
			"buyer":         buyer,
			"seller":        seller,
			"value":         paidValue,
		}).Error("Settlement value transfer failed after ledger commit")

		return rec, &Error{
			Kind:    KindTransferFailed,
			Message: fmt.Sprintf("value transfer failed for settlement %s", rec.ID),
			Err:     err,
		}
	}

	e.logger.WithFields(logrus.Fields{
		"settlement_id": rec.ID,
		"property_id":   rec.PropertyID,
		"buyer":         rec.Buyer,
		"seller":        rec.Seller,
		"value":         rec.Value,
	}).Info("Property sold")

	return rec, nil
}

// settle runs the precondition checks and commits the ledger mutation
// while holding the registry mutex.
func (e *Engine) settle(settlementID, propertyID string, paidValue int64, buyer models.Identity) (*models.Settlement, models.Identity, error) {
	r := e.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	property, err := r.db.GetProperty(propertyID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load property: %w", err)
	}
	if property == nil {
		return nil, "", newError(KindNotFound, fmt.Sprintf("property not found: %s", propertyID))
	}
	if !property.IsActive {
		return nil, "", newError(KindInactiveListing, "property is not active")
	}
	if buyer == property.Owner {
		return nil, "", newError(KindSelfPurchase, "owner cannot buy own property")
	}

	existing, err := r.db.GetSettlement(settlementID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing settlement: %w", err)
	}
	if existing != nil {
		return nil, "", newError(KindDuplicateKey, fmt.Sprintf("settlement already exists: %s", settlementID))
	}

	if paidValue != property.Price {
		return nil, "", newError(KindPaymentMismatch,
			fmt.Sprintf("incorrect value sent: paid %d, price is %d", paidValue, property.Price))
	}

	seller := property.Owner
	rec := &models.Settlement{
		ID:         settlementID,
		PropertyID: propertyID,
		Buyer:      buyer,
		Seller:     seller,
		Value:      paidValue,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}

	if err := r.transferOwnership(propertyID, buyer, rec); err != nil {
		return nil, "", fmt.Errorf("failed to execute purchase: %w", err)
	}

	return rec, seller, nil
}

// Settlement returns a single settlement record by ID.
func (e *Engine) Settlement(id string) (*models.Settlement, error) {
	rec, err := e.registry.db.GetSettlement(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load settlement: %w", err)
	}
	if rec == nil {
		return nil, newError(KindNotFound, fmt.Sprintf("settlement not found: %s", id))
	}
	return rec, nil
}

// Settlements returns the full audit trail in insertion order.
func (e *Engine) Settlements() ([]models.Settlement, error) {
	return e.registry.db.GetAllSettlements()
}

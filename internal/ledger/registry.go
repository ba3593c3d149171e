package ledger

import (
	"deedledger/server/internal/database"
	"deedledger/server/internal/events"
	"deedledger/server/internal/models"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Registry is the authoritative ledger of property records. It enforces
// id uniqueness and owner-only updates, and serializes every mutation
// behind a single mutex so concurrent callers racing on the same key have
// exactly one winner.
type Registry struct {
	db     *database.Database
	bus    *events.Bus
	logger *logrus.Logger

	// mu guards all ledger mutations, including purchases executed by
	// the escrow engine. Reads go straight to the database and only ever
	// observe committed state.
	mu sync.Mutex
}

// CreateInput carries the caller-supplied fields of a new listing.
type CreateInput struct {
	ID          string
	Title       string
	Description string
	Price       int64
	Location    string
	Documents   []string
}

// NewRegistry creates a registry backed by the given database. Events are
// published on bus after each successful mutation.
func NewRegistry(db *database.Database, bus *events.Bus, logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Registry{
		db:     db,
		bus:    bus,
		logger: logger,
	}
}

// Create stores a new property listing owned by caller. The listing is
// active immediately and a PropertyListed event is emitted.
func (r *Registry) Create(in CreateInput, caller models.Identity) (*models.Property, error) {
	if in.ID == "" {
		return nil, newError(KindInvalidInput, "property ID is required")
	}
	if in.Title == "" {
		return nil, newError(KindInvalidInput, "property title is required")
	}
	if in.Price <= 0 {
		return nil, newError(KindInvalidInput, "price must be positive")
	}
	if caller == "" {
		return nil, newError(KindInvalidInput, "caller identity is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.db.GetProperty(in.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing property: %w", err)
	}
	if existing != nil {
		return nil, newError(KindDuplicateKey, fmt.Sprintf("property already exists: %s", in.ID))
	}

	property := &models.Property{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Price:       in.Price,
		Owner:       caller,
		Documents:   append([]string{}, in.Documents...),
		IsActive:    true,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}

	if err := r.db.InsertProperty(property); err != nil {
		return nil, fmt.Errorf("failed to store property: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"property_id": property.ID,
		"owner":       property.Owner,
		"price":       property.Price,
	}).Info("Property listed")

	r.publish(events.PropertyListed{
		ID:        property.ID,
		Title:     property.Title,
		Location:  property.Location,
		Price:     property.Price,
		Owner:     property.Owner,
		Timestamp: property.CreatedAt,
	})

	return property, nil
}

// Update sets the price and active flag of a listing. Only the current
// owner may update; every other field is untouched.
func (r *Registry) Update(id string, newPrice int64, newIsActive bool, caller models.Identity) (*models.Property, error) {
	if newPrice <= 0 {
		return nil, newError(KindInvalidInput, "price must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	property, err := r.db.GetProperty(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if property == nil {
		return nil, newError(KindNotFound, fmt.Sprintf("property not found: %s", id))
	}
	if property.Owner != caller {
		return nil, newError(KindUnauthorized, "not the property owner")
	}

	if err := r.db.UpdateListing(id, newPrice, newIsActive); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	property.Price = newPrice
	property.IsActive = newIsActive

	r.logger.WithFields(logrus.Fields{
		"property_id": id,
		"price":       newPrice,
		"is_active":   newIsActive,
	}).Info("Property updated")

	return property, nil
}

// Get returns a single property by ID.
func (r *Registry) Get(id string) (*models.Property, error) {
	property, err := r.db.GetProperty(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if property == nil {
		return nil, newError(KindNotFound, fmt.Sprintf("property not found: %s", id))
	}
	return property, nil
}

// ListAll returns every property in insertion order.
func (r *Registry) ListAll() ([]models.Property, error) {
	return r.db.GetAllProperties()
}

// ListActive returns the purchasable subset of ListAll, same relative order.
func (r *Registry) ListActive() ([]models.Property, error) {
	return r.db.GetActiveProperties()
}

// transferOwnership moves a property to its buyer, delists it and appends
// the settlement record, all in one storage transaction. Only the escrow
// engine's purchase path reaches it, and only while holding r.mu.
func (r *Registry) transferOwnership(propertyID string, newOwner models.Identity, rec *models.Settlement) error {
	return r.db.ExecutePurchase(propertyID, newOwner, rec)
}

// publish emits an event without ever blocking a ledger mutation.
func (r *Registry) publish(event events.Event) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(event); err != nil {
		r.logger.WithError(err).Error("Failed to publish event")
	}
}

package events

import (
	"deedledger/server/internal/models"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrBusFull   = errors.New("event bus is full")
	ErrBusClosed = errors.New("event bus is closed")
)

// Event is a ledger notification. Concrete types are PropertyListed and
// PropertySold.
type Event interface{}

// PropertyListed is emitted after a property is successfully created.
type PropertyListed struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Location  string          `json:"location"`
	Price     int64           `json:"price"`
	Owner     models.Identity `json:"owner"`
	Timestamp time.Time       `json:"timestamp"`
}

// PropertySold is emitted after a purchase has committed.
type PropertySold struct {
	PropertyID   string          `json:"property_id"`
	SettlementID string          `json:"settlement_id"`
	Buyer        models.Identity `json:"buyer"`
	Seller       models.Identity `json:"seller"`
	Value        int64           `json:"value"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Bus fans ledger events out to subscribed handlers. Delivery is
// asynchronous: Publish never blocks the caller, so the ledger's critical
// section is never held open for a slow subscriber.
type Bus struct {
	items    chan Event
	done     chan struct{}
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func(Event) error
}

// NewBus creates a new event bus with the specified buffer size.
func NewBus(bufferSize int, logger *logrus.Logger) *Bus {
	return &Bus{
		items:    make(chan Event, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func(Event) error, 0),
	}
}

// Publish adds an event to the bus.
func (b *Bus) Publish(event Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	b.mu.RUnlock()

	// Non-blocking send to prevent deadlocks
	select {
	case b.items <- event:
		b.logger.WithField("event", event).Debug("Published event")
		return nil
	default:
		return ErrBusFull
	}
}

// Subscribe adds a handler function that will be called for each event
func (b *Bus) Subscribe(handler func(Event) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Start begins delivering events to subscribers
func (b *Bus) Start() {
	go b.process()
}

// process handles the delivery loop
func (b *Bus) process() {
	for {
		select {
		case <-b.done:
			return
		case event := <-b.items:
			b.deliver(event)
		}
	}
}

// deliver sends the event to all subscribed handlers
func (b *Bus) deliver(event Event) {
	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			b.logger.WithError(err).Error("Handler failed to process event")
		}
	}
}

// Close stops the bus and prevents new events from being published
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true
	close(b.done)
	close(b.items)
	return nil
}

// Len returns the current number of undelivered events
func (b *Bus) Len() int {
	return len(b.items)
}

// IsClosed returns whether the bus has been closed
func (b *Bus) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

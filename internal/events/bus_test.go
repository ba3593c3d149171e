package events

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewBus(t *testing.T) {
	logger := logrus.New()
	b := NewBus(10, logger)
	assert.NotNil(t, b)
	assert.Equal(t, 10, b.maxSize)
	assert.False(t, b.IsClosed())
}

func TestBus_Publish(t *testing.T) {
	logger := logrus.New()
	b := NewBus(2, logger)

	// Test successful publish
	err := b.Publish(PropertyListed{ID: "P1"})
	assert.NoError(t, err)
	assert.Equal(t, 1, b.Len())

	// Test bus full
	for i := 0; i < 2; i++ {
		_ = b.Publish(PropertyListed{ID: "P1"})
	}
	err = b.Publish(PropertyListed{ID: "P2"})
	assert.Equal(t, ErrBusFull, err)

	// Test closed bus
	b.Close()
	err = b.Publish(PropertyListed{ID: "P3"})
	assert.Equal(t, ErrBusClosed, err)
}

func TestBus_Subscribe(t *testing.T) {
	logger := logrus.New()
	b := NewBus(10, logger)

	var received []Event
	var mu sync.Mutex

	// Add handler
	b.Subscribe(func(event Event) error {
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
		return nil
	})

	// Start bus
	b.Start()

	// Publish events
	err := b.Publish(PropertyListed{ID: "P1", Title: "Villa"})
	assert.NoError(t, err)
	err = b.Publish(PropertySold{PropertyID: "P1", SettlementID: "S1"})
	assert.NoError(t, err)

	// Wait for delivery
	time.Sleep(100 * time.Millisecond)

	// Verify delivery order and payloads
	mu.Lock()
	assert.Equal(t, 2, len(received))
	listed, ok := received[0].(PropertyListed)
	assert.True(t, ok)
	assert.Equal(t, "Villa", listed.Title)
	sold, ok := received[1].(PropertySold)
	assert.True(t, ok)
	assert.Equal(t, "S1", sold.SettlementID)
	mu.Unlock()
}

func TestBus_MultipleSubscribers(t *testing.T) {
	logger := logrus.New()
	b := NewBus(10, logger)

	var count int
	var mu sync.Mutex

	for i := 0; i < 3; i++ {
		b.Subscribe(func(event Event) error {
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		})
	}

	b.Start()
	_ = b.Publish(PropertyListed{ID: "P1"})

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, 3, count)
	mu.Unlock()
}

func TestBus_Close(t *testing.T) {
	logger := logrus.New()
	b := NewBus(10, logger)

	// Test first close
	err := b.Close()
	assert.NoError(t, err)
	assert.True(t, b.IsClosed())

	// Test second close (should be no-op)
	err = b.Close()
	assert.NoError(t, err)
}

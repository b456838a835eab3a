package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"dinein-telegram/backend"
	"dinein-telegram/models"
)

// Checkout states. A new run is rejected while one is in flight; a
// finished run (either way) lets the next one start.
const (
	CheckoutIdle      = "idle"
	CheckoutInFlight  = "in_flight"
	CheckoutSucceeded = "succeeded"
	CheckoutFailed    = "failed"
)

// User-facing checkout statuses, worded exactly as the ordering page
// shows them. Each status replaces the previous one.
const (
	StatusCreatingOrder  = "Creating order..."
	StatusOrderFallback  = "Failed to create order"
	StatusCheckoutError  = "Error during checkout"
	StatusPaymentSuccess = "Payment successful! Your order is confirmed."
)

func StatusProcessingPayment(subtotal models.Paise) string {
	return fmt.Sprintf("Order created. Amount ₹%s. Processing payment (sandbox)...", subtotal.Format())
}

// OrderPlacer is the slice of the backend client the checkout needs.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, sub models.OrderSubmission) (*models.CreatedOrder, error)
	ConfirmMockPayment(ctx context.Context, orderID string) error
}

var (
	ErrCheckoutInFlight = errors.New("checkout already in flight")
	ErrEmptyCart        = errors.New("cart is empty")
)

// Checkout drives the two-stage order-then-payment pipeline for one
// chat session.
type Checkout struct {
	placer OrderPlacer

	mu    sync.Mutex
	state string
}

func NewCheckout(placer OrderPlacer) *Checkout {
	return &Checkout{placer: placer, state: CheckoutIdle}
}

func (c *Checkout) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Checkout) begin(lines int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == CheckoutInFlight {
		return ErrCheckoutInFlight
	}
	if lines == 0 {
		return ErrEmptyCart
	}
	c.state = CheckoutInFlight
	return nil
}

func (c *Checkout) finish(state string) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// Run submits the cart as an order for the table and confirms the
// sandbox payment. notify receives each user-facing status in order.
//
// On a backend rejection the diner sees the backend's own reason; on
// any transport or parse failure a generic message. In both failure
// paths the cart is left untouched so the order can be retried, and the
// payment confirmation is never issued. Only a fully confirmed run
// clears the cart.
func (c *Checkout) Run(ctx context.Context, cart *Cart, tableID string, notify func(status string)) (*models.CreatedOrder, error) {
	if err := c.begin(cart.Len()); err != nil {
		return nil, err
	}
	notify(StatusCreatingOrder)

	created, err := c.placer.CreateOrder(ctx, cart.Submission(tableID))
	if err != nil {
		c.finish(CheckoutFailed)
		var rej *backend.RejectionError
		if errors.As(err, &rej) {
			detail := rej.Detail
			if detail == "" {
				detail = StatusOrderFallback
			}
			notify(detail)
			return nil, err
		}
		log.Printf("checkout table=%s: %v", tableID, err)
		notify(StatusCheckoutError)
		return nil, err
	}

	notify(StatusProcessingPayment(created.Subtotal))

	// Sandbox confirm is fire-and-forget: the outcome does not gate the
	// order. A transport failure is only logged.
	if err := c.placer.ConfirmMockPayment(ctx, created.OrderID); err != nil {
		log.Printf("mock payment confirm order_id=%s: %v", created.OrderID, err)
	}

	notify(StatusPaymentSuccess)
	cart.Clear()
	c.finish(CheckoutSucceeded)
	return created, nil
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dinein-telegram/backend"
	"dinein-telegram/models"
)

type fakePlacer struct {
	createFn func(sub models.OrderSubmission) (*models.CreatedOrder, error)
	confirm  func(orderID string) error

	createdSubs  []models.OrderSubmission
	confirmedIDs []string
}

func (f *fakePlacer) CreateOrder(ctx context.Context, sub models.OrderSubmission) (*models.CreatedOrder, error) {
	f.createdSubs = append(f.createdSubs, sub)
	return f.createFn(sub)
}

func (f *fakePlacer) ConfirmMockPayment(ctx context.Context, orderID string) error {
	f.confirmedIDs = append(f.confirmedIDs, orderID)
	if f.confirm != nil {
		return f.confirm(orderID)
	}
	return nil
}

func cartWith(t *testing.T, qty int) *Cart {
	t.Helper()
	c := NewCart()
	c.Add(item("a", "Tea", 1000))
	c.SetQuantity("a", qty)
	return c
}

func wantStatuses(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("statuses = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("status[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCheckoutSuccess(t *testing.T) {
	placer := &fakePlacer{
		createFn: func(sub models.OrderSubmission) (*models.CreatedOrder, error) {
			return &models.CreatedOrder{OrderID: "o1", Subtotal: 2000}, nil
		},
	}
	cart := cartWith(t, 2)
	co := NewCheckout(placer)

	var statuses []string
	created, err := co.Run(context.Background(), cart, "5", func(s string) {
		statuses = append(statuses, s)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if created.OrderID != "o1" {
		t.Errorf("order id = %q, want o1", created.OrderID)
	}
	wantStatuses(t, statuses, []string{
		"Creating order...",
		"Order created. Amount ₹20. Processing payment (sandbox)...",
		"Payment successful! Your order is confirmed.",
	})
	if cart.Len() != 0 {
		t.Errorf("cart has %d lines after confirmed order, want 0", cart.Len())
	}
	if co.State() != CheckoutSucceeded {
		t.Errorf("state = %q, want %q", co.State(), CheckoutSucceeded)
	}

	// The submission carries the table and one pair per cart line.
	if len(placer.createdSubs) != 1 {
		t.Fatalf("orders submitted = %d, want 1", len(placer.createdSubs))
	}
	sub := placer.createdSubs[0]
	if sub.TableID != "5" || sub.PaymentMethod != models.PaymentMethodOnline {
		t.Errorf("submission = %+v", sub)
	}
	if len(sub.Items) != 1 || sub.Items[0] != (models.OrderLine{ItemID: "a", Quantity: 2}) {
		t.Errorf("submission items = %+v", sub.Items)
	}
	if len(placer.confirmedIDs) != 1 || placer.confirmedIDs[0] != "o1" {
		t.Errorf("confirmed ids = %q, want [o1]", placer.confirmedIDs)
	}
}

func TestCheckoutRejectionShowsDetailAndKeepsCart(t *testing.T) {
	placer := &fakePlacer{
		createFn: func(sub models.OrderSubmission) (*models.CreatedOrder, error) {
			return nil, &backend.RejectionError{StatusCode: 400, Detail: "Item unavailable"}
		},
	}
	cart := cartWith(t, 2)
	co := NewCheckout(placer)

	var statuses []string
	_, err := co.Run(context.Background(), cart, "5", func(s string) {
		statuses = append(statuses, s)
	})
	if err == nil {
		t.Fatal("Run should fail on rejection")
	}
	wantStatuses(t, statuses, []string{"Creating order...", "Item unavailable"})
	if lines := cart.Lines(); len(lines) != 1 || lines[0].Qty != 2 {
		t.Errorf("cart = %+v, want the original line preserved for retry", lines)
	}
	if len(placer.confirmedIDs) != 0 {
		t.Error("payment confirm must not be issued for a rejected order")
	}
	if co.State() != CheckoutFailed {
		t.Errorf("state = %q, want %q", co.State(), CheckoutFailed)
	}
}

func TestCheckoutRejectionWithoutDetailUsesFallback(t *testing.T) {
	placer := &fakePlacer{
		createFn: func(sub models.OrderSubmission) (*models.CreatedOrder, error) {
			return nil, &backend.RejectionError{StatusCode: 500}
		},
	}
	var statuses []string
	_, err := NewCheckout(placer).Run(context.Background(), cartWith(t, 1), "1", func(s string) {
		statuses = append(statuses, s)
	})
	if err == nil {
		t.Fatal("Run should fail")
	}
	wantStatuses(t, statuses, []string{"Creating order...", "Failed to create order"})
}

func TestCheckoutNetworkErrorIsGeneric(t *testing.T) {
	placer := &fakePlacer{
		createFn: func(sub models.OrderSubmission) (*models.CreatedOrder, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	cart := cartWith(t, 2)
	var statuses []string
	_, err := NewCheckout(placer).Run(context.Background(), cart, "1", func(s string) {
		statuses = append(statuses, s)
	})
	if err == nil {
		t.Fatal("Run should fail")
	}
	wantStatuses(t, statuses, []string{"Creating order...", "Error during checkout"})
	if cart.Len() != 1 {
		t.Errorf("cart = %d lines, want 1 (preserved)", cart.Len())
	}
	if len(placer.confirmedIDs) != 0 {
		t.Error("payment confirm must never be issued after a failed create")
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	placer := &fakePlacer{
		createFn: func(sub models.OrderSubmission) (*models.CreatedOrder, error) {
			t.Fatal("CreateOrder must not be called for an empty cart")
			return nil, nil
		},
	}
	var statuses []string
	_, err := NewCheckout(placer).Run(context.Background(), NewCart(), "1", func(s string) {
		statuses = append(statuses, s)
	})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
	if len(statuses) != 0 {
		t.Errorf("statuses = %q, want none", statuses)
	}
}

func TestCheckoutRejectsSecondRunWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	placer := &fakePlacer{
		createFn: func(sub models.OrderSubmission) (*models.CreatedOrder, error) {
			close(entered)
			<-release
			return &models.CreatedOrder{OrderID: "o1", Subtotal: 1000}, nil
		},
	}
	cart := cartWith(t, 1)
	co := NewCheckout(placer)

	done := make(chan error, 1)
	go func() {
		_, err := co.Run(context.Background(), cart, "1", func(string) {})
		done <- err
	}()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("first checkout never reached the backend")
	}

	if _, err := co.Run(context.Background(), cart, "1", func(string) {}); !errors.Is(err, ErrCheckoutInFlight) {
		t.Errorf("second Run err = %v, want ErrCheckoutInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if len(placer.createdSubs) != 1 {
		t.Errorf("orders submitted = %d, want 1 (no double submission)", len(placer.createdSubs))
	}
}

func TestCheckoutConfirmFailureStillConfirmsOrder(t *testing.T) {
	placer := &fakePlacer{
		createFn: func(sub models.OrderSubmission) (*models.CreatedOrder, error) {
			return &models.CreatedOrder{OrderID: "o1", Subtotal: 1000}, nil
		},
		confirm: func(orderID string) error {
			return errors.New("sandbox down")
		},
	}
	cart := cartWith(t, 1)
	co := NewCheckout(placer)

	var statuses []string
	_, err := co.Run(context.Background(), cart, "1", func(s string) {
		statuses = append(statuses, s)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if statuses[len(statuses)-1] != StatusPaymentSuccess {
		t.Errorf("final status = %q, want %q (confirm outcome is not checked)", statuses[len(statuses)-1], StatusPaymentSuccess)
	}
	if cart.Len() != 0 {
		t.Error("cart should be cleared even when the sandbox confirm call fails")
	}
}

func TestCheckoutCanRetryAfterFailure(t *testing.T) {
	attempts := 0
	placer := &fakePlacer{
		createFn: func(sub models.OrderSubmission) (*models.CreatedOrder, error) {
			attempts++
			if attempts == 1 {
				return nil, errors.New("transient")
			}
			return &models.CreatedOrder{OrderID: "o2", Subtotal: 1000}, nil
		},
	}
	cart := cartWith(t, 1)
	co := NewCheckout(placer)

	if _, err := co.Run(context.Background(), cart, "1", func(string) {}); err == nil {
		t.Fatal("first Run should fail")
	}
	created, err := co.Run(context.Background(), cart, "1", func(string) {})
	if err != nil {
		t.Fatalf("retry Run: %v", err)
	}
	if created.OrderID != "o2" {
		t.Errorf("order id = %q, want o2", created.OrderID)
	}
	if co.State() != CheckoutSucceeded {
		t.Errorf("state = %q, want %q", co.State(), CheckoutSucceeded)
	}
}

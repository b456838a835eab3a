package models

// OrderLine is one (item, quantity) pair of an order submission.
type OrderLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

const PaymentMethodOnline = "online"

// OrderSubmission is the POST /api/order request body. It is built from
// the cart at checkout time, never stored.
type OrderSubmission struct {
	TableID       string      `json:"table_id"`
	Items         []OrderLine `json:"items"`
	PaymentMethod string      `json:"payment_method"`
}

// CreatedOrder is what the backend returns for a accepted order; the
// order id is threaded into the payment confirmation call.
type CreatedOrder struct {
	OrderID  string `json:"order_id"`
	Subtotal Paise  `json:"subtotal"`
}

// Receipt is a row from the receipts table: one confirmed checkout of a
// chat session. The backend owns the order itself; this is only the
// bot's own record for /orders.
type Receipt struct {
	ID        int64
	ChatID    int64
	TableID   string
	OrderID   string
	Subtotal  Paise
	CreatedAt string
}

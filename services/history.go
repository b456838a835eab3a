package services

import (
	"context"
	"fmt"

	"dinein-telegram/db"
	"dinein-telegram/models"
)

// Order history and table bindings live in the bot's own database so a
// diner who scanned a table QR once keeps the binding across restarts
// and can recall past orders with /orders. The backend still owns the
// orders themselves; the cart is never persisted. All of this is
// optional: with no pool configured every call degrades to a no-op.

func BindTable(ctx context.Context, chatID int64, tableID string) error {
	if db.Pool == nil {
		return nil
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO table_sessions (chat_id, table_id, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (chat_id) DO UPDATE SET
			table_id = $2,
			updated_at = now()`,
		chatID, tableID,
	)
	return err
}

func TableForChat(ctx context.Context, chatID int64) (string, bool) {
	if db.Pool == nil {
		return "", false
	}
	var tableID string
	err := db.Pool.QueryRow(ctx, `
		SELECT table_id FROM table_sessions WHERE chat_id = $1`,
		chatID,
	).Scan(&tableID)
	if err != nil {
		return "", false
	}
	return tableID, true
}

func SaveReceipt(ctx context.Context, r models.Receipt) error {
	if db.Pool == nil {
		return nil
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO receipts (chat_id, table_id, order_id, subtotal)
		VALUES ($1, $2, $3, $4)`,
		r.ChatID, r.TableID, r.OrderID, int64(r.Subtotal),
	)
	if err != nil {
		return fmt.Errorf("save receipt: %w", err)
	}
	return nil
}

func ListReceipts(ctx context.Context, chatID int64, limit int) ([]models.Receipt, error) {
	if db.Pool == nil {
		return nil, nil
	}
	rows, err := db.Pool.Query(ctx, `
		SELECT id, chat_id, table_id, order_id, subtotal, created_at::text
		FROM receipts
		WHERE chat_id = $1
		ORDER BY id DESC
		LIMIT $2`,
		chatID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []models.Receipt
	for rows.Next() {
		var r models.Receipt
		var subtotal int64
		if err := rows.Scan(&r.ID, &r.ChatID, &r.TableID, &r.OrderID, &subtotal, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Subtotal = models.Paise(subtotal)
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"dinein-telegram/backend"
	"dinein-telegram/config"
	"dinein-telegram/models"
	"dinein-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// session is one chat's view of the restaurant: the table the diner
// scanned into, their in-memory cart, and their checkout machine.
// Carts live only in memory; a restart empties them.
type session struct {
	TableID  string
	Cart     *services.Cart
	Checkout *services.Checkout

	mu          sync.Mutex
	statusMsgID int // checkout status message, edited in place
}

type Bot struct {
	api     *tgbotapi.BotAPI
	cfg     *config.Config
	catalog *services.Catalog
	placer  services.OrderPlacer

	sessions   map[int64]*session
	sessionsMu sync.RWMutex
}

func New(cfg *config.Config, client *backend.Client, menuCache services.MenuCache) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:      api,
		cfg:      cfg,
		catalog:  services.NewCatalog(client, menuCache),
		placer:   client,
		sessions: make(map[int64]*session),
	}, nil
}

// parseTablePayload turns a /start deep-link payload into a table id.
// The QR on each table encodes t.me/<bot>?start=table_<n>; bare numbers
// are accepted too. An empty payload falls back to the default.
func parseTablePayload(payload, def string) string {
	p := strings.TrimSpace(payload)
	p = strings.TrimPrefix(p, "table_")
	p = strings.TrimPrefix(p, "table-")
	if p == "" {
		return def
	}
	return p
}

func (b *Bot) session(chatID int64) *session {
	b.sessionsMu.RLock()
	s := b.sessions[chatID]
	b.sessionsMu.RUnlock()
	if s != nil {
		return s
	}

	tableID := b.cfg.Backend.DefaultTable
	if t, ok := services.TableForChat(context.Background(), chatID); ok {
		tableID = t
	}

	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()
	if s = b.sessions[chatID]; s != nil {
		return s
	}
	s = &session{
		TableID:  tableID,
		Cart:     services.NewCart(),
		Checkout: services.NewCheckout(b.placer),
	}
	b.sessions[chatID] = s
	return s
}

func (b *Bot) setBotCommands() error {
	cfg := tgbotapi.SetMyCommandsConfig{
		Commands: []tgbotapi.BotCommand{
			{Command: "start", Description: "Scan in at your table"},
			{Command: "menu", Description: "Browse the menu"},
			{Command: "cart", Description: "Your order"},
			{Command: "orders", Description: "Past orders"},
			{Command: "table", Description: "Show or change your table"},
		},
	}
	_, err := b.api.Request(cfg)
	return err
}

func (b *Bot) Start() {
	_ = b.setBotCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.CallbackQuery != nil {
			b.handleCallback(update.CallbackQuery)
			continue
		}
		if update.Message == nil {
			continue
		}
		msg := update.Message
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			b.handleStart(msg.Chat.ID, strings.TrimPrefix(text, "/start"))
		case text == "/menu":
			b.sendMenu(msg.Chat.ID)
		case text == "/cart":
			b.sendCart(msg.Chat.ID)
		case text == "/orders":
			b.handleOrders(msg.Chat.ID)
		case strings.HasPrefix(text, "/table"):
			b.handleTable(msg.Chat.ID, strings.TrimPrefix(text, "/table"))
		}
	}
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send error: %v", err)
	}
}

func (b *Bot) sendWithInline(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send error: %v", err)
	}
}

func (b *Bot) handleStart(chatID int64, payload string) {
	sess := b.session(chatID)
	if p := strings.TrimSpace(payload); p != "" {
		sess.TableID = parseTablePayload(p, b.cfg.Backend.DefaultTable)
		if err := services.BindTable(context.Background(), chatID, sess.TableID); err != nil {
			log.Printf("bind table chat=%d: %v", chatID, err)
		}
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍽 View menu", "menu"),
		),
	)
	text := fmt.Sprintf("*Smart Restaurant*\nTable #%s\n\nWelcome! Browse the menu and order right from your seat.", sess.TableID)
	b.sendWithInline(chatID, text, kb)
}

// cartSummary renders the current cart under a menu or category screen,
// teacher-card style. Empty cart renders nothing.
func cartSummary(cart *services.Cart) string {
	lines := cart.Lines()
	if len(lines) == 0 {
		return ""
	}
	text := "\n\n🛒 *Your order:*\n"
	for _, l := range lines {
		text += fmt.Sprintf("• %s × %d — ₹%s\n", l.Name, l.Qty, (l.Price * models.Paise(l.Qty)).Format())
	}
	text += fmt.Sprintf("\n*Total: ₹%s*", cart.Total().Format())
	return text
}

func (b *Bot) sendMenu(chatID int64) {
	ctx := context.Background()
	b.catalog.Refresh(ctx)
	groups := services.GroupByCategory(b.catalog.Items())
	sess := b.session(chatID)

	if len(groups) == 0 {
		b.send(chatID, "No menu items yet. Please check back in a bit.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, g := range groups {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(g.Name, "cat:"+g.Name),
		))
	}
	rows = append(rows, b.cartRow(sess)...)

	text := fmt.Sprintf("🍽 *Smart Restaurant* — Table #%s\n\nChoose a category:", sess.TableID)
	text += cartSummary(sess.Cart)
	b.sendWithInline(chatID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// cartRow is the trailing keyboard row(s): the cart shortcut, and the
// pay button only when there is something to pay for.
func (b *Bot) cartRow(sess *session) [][]tgbotapi.InlineKeyboardButton {
	row := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🛒 Cart", "cart"),
	}
	if sess.Cart.Len() > 0 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("✅ Proceed to Pay", "pay"))
	}
	return [][]tgbotapi.InlineKeyboardButton{row}
}

func (b *Bot) categoryScreen(chatID int64, category string) (string, tgbotapi.InlineKeyboardMarkup, bool) {
	groups := services.GroupByCategory(b.catalog.Items())
	sess := b.session(chatID)

	var group *services.CategoryGroup
	for i := range groups {
		if groups[i].Name == category {
			group = &groups[i]
			break
		}
	}
	if group == nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, false
	}

	text := fmt.Sprintf("📋 *%s*\n", group.Name)
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, item := range group.Items {
		text += fmt.Sprintf("\n[%s](%s) — ₹%s", item.Name, item.Image(), item.Price.Format())
		if item.Description != "" {
			text += "\n_" + item.Description + "_"
		}
		text += "\n"
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("➕ %s — ₹%s", item.Name, item.Price.Format()),
				"add:"+item.ID+":"+group.Name,
			),
		))
	}
	text += cartSummary(sess.Cart)
	rows = append(rows, b.cartRow(sess)...)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Categories", "menu"),
	))
	return text, tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func (b *Bot) sendCategory(chatID int64, category string) {
	text, kb, ok := b.categoryScreen(chatID, category)
	if !ok {
		b.sendMenu(chatID)
		return
	}
	b.sendWithInline(chatID, text, kb)
}

func (b *Bot) addToCart(chatID int64, itemID, category string, editMsgID int) {
	item, ok := b.catalog.Item(itemID)
	if !ok {
		return
	}
	sess := b.session(chatID)
	sess.Cart.Add(item)

	text, kb, screenOK := b.categoryScreen(chatID, category)
	if !screenOK {
		b.sendCart(chatID)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, editMsgID, text)
	edit.ParseMode = "Markdown"
	edit.ReplyMarkup = &kb
	if _, err := b.api.Send(edit); err != nil && !strings.Contains(err.Error(), "not modified") {
		log.Printf("edit error: %v", err)
	}
}

func (b *Bot) cartScreen(sess *session) (string, tgbotapi.InlineKeyboardMarkup) {
	lines := sess.Cart.Lines()
	if len(lines) == 0 {
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🍽 View menu", "menu"),
			),
		)
		return fmt.Sprintf("*Your Order (Table %s)*\n\nNo items yet.", sess.TableID), kb
	}

	text := fmt.Sprintf("*Your Order (Table %s)*\n", sess.TableID)
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, l := range lines {
		text += fmt.Sprintf("\n%s\n₹%s × %d", l.Name, l.Price.Format(), l.Qty)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("−", "dec:"+l.ID),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d × %s", l.Qty, l.Name), "noop"),
			tgbotapi.NewInlineKeyboardButtonData("+", "inc:"+l.ID),
		))
	}
	text += fmt.Sprintf("\n\n*Total: ₹%s*", sess.Cart.Total().Format())
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Proceed to Pay", "pay"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Menu", "menu"),
		),
	)
	return text, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) sendCart(chatID int64) {
	text, kb := b.cartScreen(b.session(chatID))
	b.sendWithInline(chatID, text, kb)
}

func (b *Bot) editCart(chatID int64, msgID int) {
	text, kb := b.cartScreen(b.session(chatID))
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = "Markdown"
	edit.ReplyMarkup = &kb
	if _, err := b.api.Send(edit); err != nil && !strings.Contains(err.Error(), "not modified") {
		log.Printf("edit error: %v", err)
	}
}

func (b *Bot) adjustQty(chatID int64, itemID string, delta int, msgID int) {
	sess := b.session(chatID)
	for _, l := range sess.Cart.Lines() {
		if l.ID == itemID {
			sess.Cart.SetQuantity(itemID, l.Qty+delta)
			break
		}
	}
	b.editCart(chatID, msgID)
}

// postStatus shows one checkout status. Exactly one status message is
// visible per attempt: the first status creates it, the rest edit it.
func (b *Bot) postStatus(chatID int64, sess *session, status string) {
	sess.mu.Lock()
	msgID := sess.statusMsgID
	sess.mu.Unlock()

	if msgID == 0 {
		sent, err := b.api.Send(tgbotapi.NewMessage(chatID, status))
		if err != nil {
			log.Printf("status send: %v", err)
			return
		}
		sess.mu.Lock()
		sess.statusMsgID = sent.MessageID
		sess.mu.Unlock()
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, msgID, status)
	if _, err := b.api.Send(edit); err != nil && !strings.Contains(err.Error(), "not modified") {
		log.Printf("status edit: %v", err)
	}
}

func (b *Bot) handlePay(chatID int64) {
	sess := b.session(chatID)
	if sess.Cart.Len() == 0 {
		b.send(chatID, "No items yet.")
		return
	}
	if sess.Checkout.State() == services.CheckoutInFlight {
		b.send(chatID, "Payment already in progress.")
		return
	}

	// Fresh status message for each attempt.
	sess.mu.Lock()
	sess.statusMsgID = 0
	sess.mu.Unlock()

	tableID := sess.TableID
	go func() {
		created, err := sess.Checkout.Run(context.Background(), sess.Cart, tableID, func(status string) {
			b.postStatus(chatID, sess, status)
		})
		if err != nil {
			if err == services.ErrCheckoutInFlight {
				b.send(chatID, "Payment already in progress.")
			}
			return
		}
		receipt := models.Receipt{
			ChatID:   chatID,
			TableID:  tableID,
			OrderID:  created.OrderID,
			Subtotal: created.Subtotal,
		}
		if err := services.SaveReceipt(context.Background(), receipt); err != nil {
			log.Printf("receipt order_id=%s: %v", created.OrderID, err)
		}
	}()
}

func (b *Bot) handleOrders(chatID int64) {
	receipts, err := services.ListReceipts(context.Background(), chatID, 20)
	if err != nil {
		log.Printf("list receipts chat=%d: %v", chatID, err)
		b.send(chatID, "Couldn't load your past orders.")
		return
	}
	if len(receipts) == 0 {
		b.send(chatID, "No past orders yet.")
		return
	}
	datePart := func(s string) string {
		if len(s) >= 10 {
			return s[:10]
		}
		return s
	}
	text := "Your orders:\n"
	for _, r := range receipts {
		text += fmt.Sprintf("%s — ₹%s — table %s — %s\n", r.OrderID, r.Subtotal.Format(), r.TableID, datePart(r.CreatedAt))
	}
	b.send(chatID, text)
}

func (b *Bot) handleTable(chatID int64, args string) {
	sess := b.session(chatID)
	args = strings.TrimSpace(args)
	if args == "" {
		b.send(chatID, fmt.Sprintf("You're at table #%s. Send /table <number> to change.", sess.TableID))
		return
	}
	sess.TableID = parseTablePayload(args, b.cfg.Backend.DefaultTable)
	if err := services.BindTable(context.Background(), chatID, sess.TableID); err != nil {
		log.Printf("bind table chat=%d: %v", chatID, err)
	}
	b.send(chatID, fmt.Sprintf("Table changed to #%s.", sess.TableID))
}

func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	data := cq.Data

	b.api.Request(tgbotapi.NewCallback(cq.ID, ""))

	switch {
	case data == "menu":
		b.sendMenu(chatID)
	case data == "cart":
		b.sendCart(chatID)
	case data == "pay":
		b.handlePay(chatID)
	case data == "noop":
		// quantity label button
	case strings.HasPrefix(data, "cat:"):
		b.sendCategory(chatID, strings.TrimPrefix(data, "cat:"))
	case strings.HasPrefix(data, "add:"):
		rest := strings.TrimPrefix(data, "add:")
		parts := strings.SplitN(rest, ":", 2)
		category := models.DefaultCategory
		if len(parts) > 1 {
			category = parts[1]
		}
		b.addToCart(chatID, parts[0], category, cq.Message.MessageID)
	case strings.HasPrefix(data, "inc:"):
		b.adjustQty(chatID, strings.TrimPrefix(data, "inc:"), 1, cq.Message.MessageID)
	case strings.HasPrefix(data, "dec:"):
		b.adjustQty(chatID, strings.TrimPrefix(data, "dec:"), -1, cq.Message.MessageID)
	}
}

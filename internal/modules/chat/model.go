// README: Chat entry shape; one append-only log per order conversation.
package chat

// Entry is one chat message in an order's conversation log. Timestamp is
// epoch milliseconds and is the only ordering authority on read.
type Entry struct {
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

package models

// All lists every persisted entity, in migration order.
func All() []any {
	return []any{
		&User{},
		&Event{},
		&TicketCategory{},
		&Order{},
		&OrderItem{},
		&Ticket{},
		&Admission{},
		&Transaction{},
		&Notification{},
		&JobTask{},
	}
}

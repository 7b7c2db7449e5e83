package models

// All lists every persisted model in dependency order. Tests and the sqlite
// dev mode migrate with it; Postgres uses the goose migrations.
func All() []any {
	return []any{
		&User{},
		&Address{},
		&UserActivity{},
		&Notification{},
		&Category{},
		&Product{},
		&ProductReview{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderNumberCounter{},
		&Wishlist{},
		&WishlistProduct{},
		&OutboxEvent{},
	}
}

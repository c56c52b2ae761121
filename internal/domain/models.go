package domain

// Models returns every persisted entity, in migration order.
func Models() []any {
	return []any{
		&User{},
		&Message{},
		&FlaggedContent{},
		&ActivityLog{},
		&Notification{},
	}
}

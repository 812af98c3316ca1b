package models

// All returns every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&University{},
		&Scholar{},
		&ScholarScoreHistory{},
		&Activity{},
		&ActivityRevision{},
		&Evaluation{},
		&Document{},
		&Notification{},
		&AuditLog{},
	}
}

package models

// All returns every model in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Service{},
		&Order{},
		&OrderItem{},
		&Guardian{},
		&Student{},
		&Contract{},
		&DataRequest{},
		&DataRequestFile{},
		&Notification{},
		&Review{},
	}
}

package models

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Patient{},
		&VisitType{},
		&Visit{},
		&VisitAct{},
		&VisitActTooth{},
		&Payment{},
		&DigestLog{},
	}
}

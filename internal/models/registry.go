package models

// All returns every model that needs a table, in migration order.
func All() []any {
	return []any{
		&Deployment{},
		&Content{},
		&Image{},
	}
}

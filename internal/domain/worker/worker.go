package worker

// Worker is the lightweight projection a reservation embeds by value.
type Worker struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Demo workers available before anyone registers with the worker role.
func Defaults() []Worker {
	return []Worker{
		{ID: "w1", Name: "María Pérez"},
		{ID: "w2", Name: "Laura Gómez"},
		{ID: "w3", Name: "Ana Rodríguez"},
	}
}

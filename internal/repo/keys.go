// Package repo holds typed repositories over the whole-collection documents
// of the store. Every mutation goes through a compare-and-swap update.
package repo

// Document keys of the persisted layout: four collections and the session singleton.
const (
	KeyUsers        = "users"
	KeyWorkers      = "workers"
	KeyServices     = "services"
	KeyReservations = "reservations"
	KeySession      = "session"
)

package service

import "errors"

var ErrNotFound = errors.New("service not found")

// PlaceholderName labels reservations whose service id no longer resolves.
const PlaceholderName = "Servicio"

// Service is static catalog data. Price is in whole currency units (COP).
type Service struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Price          int    `json:"price"`
	ApproxDuration string `json:"approxDuration"`
}

func Defaults() []Service {
	return []Service{
		{ID: "s1", Name: "Aseo general (casa pequeña)", Price: 25000, ApproxDuration: "2 h"},
		{ID: "s2", Name: "Aseo profundo", Price: 45000, ApproxDuration: "4 h"},
		{ID: "s3", Name: "Limpieza de ventanas", Price: 20000, ApproxDuration: "1.5 h"},
		{ID: "s4", Name: "Lavado de ropa y planchado", Price: 30000, ApproxDuration: "2.5 h"},
	}
}

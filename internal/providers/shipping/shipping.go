package shipping

import "context"

// Package dimensions sent to the freight calculator.
type Package struct {
	PesoKg        float64
	AlturaCm      float64
	LarguraCm     float64
	ComprimentoCm float64
}

// DefaultPackage is the standard print-shop parcel.
var DefaultPackage = Package{PesoKg: 0.5, AlturaCm: 10, LarguraCm: 15, ComprimentoCm: 20}

// Quote is the tagged result of a freight calculation. A failed call still
// carries usable fallback values; errors never cross this boundary.
type Quote struct {
	Success bool
	Valor   float64
	Prazo   string
	Err     string
}

type Provider interface {
	Calculate(ctx context.Context, origemCEP, destinoCEP string, pkg Package) Quote
}

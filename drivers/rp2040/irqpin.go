package rp2040

// Edge selection for the interrupt line.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// InterruptPin is the companion's active-low interrupt line, already
// configured as an input with a pull-up by the caller. The handler passed
// to SetIRQ runs in interrupt context.
type InterruptPin interface {
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

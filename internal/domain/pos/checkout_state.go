package pos

// CheckoutState estado del cobro de una caja.
//
//	Idle → Submitting → {Committed | Rejected}
//	Committed → Idle (carrito vaciado)
//	Rejected  → Idle (carrito intacto)
type CheckoutState string

const (
	StateIdle       CheckoutState = "IDLE"
	StateSubmitting CheckoutState = "SUBMITTING"
	StateCommitted  CheckoutState = "COMMITTED"
	StateRejected   CheckoutState = "REJECTED"
)

// CanTransition valida las transiciones permitidas de la máquina de estados.
func (s CheckoutState) CanTransition(to CheckoutState) bool {
	switch s {
	case StateIdle:
		return to == StateSubmitting
	case StateSubmitting:
		return to == StateCommitted || to == StateRejected
	case StateCommitted, StateRejected:
		return to == StateIdle
	}
	return false
}

// AcceptsMutations indica si el carrito puede modificarse en este estado.
func (s CheckoutState) AcceptsMutations() bool {
	return s != StateSubmitting
}

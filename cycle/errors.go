package cycle

import "fmt"

// ArithmeticError is a division or modulo by zero in time arithmetic,
// or a value that has no exact Fraction.
type ArithmeticError struct {
	Op      string
	Operand string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic error: %s (%s)", e.Op, e.Operand)
}

// MalformedSpanError is a span whose end precedes its begin.
type MalformedSpanError struct {
	Begin Fraction
	End   Fraction
}

func (e *MalformedSpanError) Error() string {
	return fmt.Sprintf("malformed span: end %s before begin %s", e.End, e.Begin)
}

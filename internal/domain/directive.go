package domain

import "fmt"

// Directive is a listen handler's answer to the store: keep delivering or
// stop. The zero value is deliberately invalid.
type Directive int

const (
	DirectiveContinue Directive = iota + 1
	DirectiveEndListen
)

func (d Directive) Valid() bool {
	return d == DirectiveContinue || d == DirectiveEndListen
}

func (d Directive) String() string {
	switch d {
	case DirectiveContinue:
		return "Continue"
	case DirectiveEndListen:
		return "EndListen"
	default:
		return fmt.Sprintf("Directive(%d)", int(d))
	}
}

func ParseDirective(raw string) (Directive, error) {
	switch raw {
	case "Continue":
		return DirectiveContinue, nil
	case "EndListen":
		return DirectiveEndListen, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirective, raw)
	}
}

// CheckDirective is what stores call on every handler result.
func CheckDirective(d Directive) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidDirective, d)
	}

	return nil
}

package enums

// NavigationKind classifies an outgoing navigation request observed by
// the embedded payment surface.
type NavigationKind string

const (
	NavigationKindTerminal NavigationKind = "terminal"
	NavigationKindDeepLink NavigationKind = "deep_link"
	NavigationKindOrdinary NavigationKind = "ordinary"
)

// String implements fmt.Stringer.
func (n NavigationKind) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NavigationKind.
func (n NavigationKind) IsValid() bool {
	switch n {
	case NavigationKindTerminal, NavigationKindDeepLink, NavigationKindOrdinary:
		return true
	default:
		return false
	}
}

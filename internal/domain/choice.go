package domain

// Choice is one value of a closed enum together with its display label
type Choice struct {
	Value string
	Label string
}

// labelOf looks up the label for value, falling back to the raw value
func labelOf(choices []Choice, value string) string {
	for _, c := range choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

// hasValue reports whether value is one of choices
func hasValue(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

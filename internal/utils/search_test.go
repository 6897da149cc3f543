package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsPattern(t *testing.T) {
	tests := map[string]string{
		"Food":      "%food%",
		" 50% ":     "%50!%%",
		"gift_card": "%gift!_card%",
		"wow!":      "%wow!!%",
		`a\b`:       `%a\b%`,
	}
	for term, want := range tests {
		assert.Equal(t, want, ContainsPattern(term), term)
	}
}

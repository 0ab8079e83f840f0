package auctionerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"direct", ErrSellError, CodeSellError},
		{"wrapped", fmt.Errorf("raise for team: %w", ErrInsufficientPurse), CodeInsufficientPurse},
		{"double wrapped", fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", ErrListComplete)), CodeListComplete},
		{"unknown", errors.New("connection reset"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

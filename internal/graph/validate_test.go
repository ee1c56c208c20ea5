package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/errx"
)

func TestParseIntSafe(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{"42", 42, true},
		{"007", 7, true},
		{"", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1.5", 0, false},
		{"abc", 0, false},
		{"12abc", 0, false},
		{" 12", 0, false},
		{"99999999999999999999999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseIntSafe(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyTakeConstraints(t *testing.T) {
	for _, v := range []int{1, 30, 50} {
		got, err := applyTakeConstraints(MinTake, MaxTake, v)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	tests := []struct {
		value int
		msg   string
	}{
		{0, "'take' argument value '0' is outside the valid range of '1' to '50'."},
		{51, "'take' argument value '51' is outside the valid range of '1' to '50'."},
		{-3, "'take' argument value '-3' is outside the valid range of '1' to '50'."},
	}
	for _, tt := range tests {
		_, err := applyTakeConstraints(MinTake, MaxTake, tt.value)
		require.Error(t, err)
		assert.Equal(t, errx.Invalid, errx.KindOf(err))
		assert.Equal(t, tt.msg, errx.Message(err))
	}
}

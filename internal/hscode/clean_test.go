package hscode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanCode(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		valid bool
	}{
		{name: "dotted", in: "0801.12", want: "080112", valid: true},
		{name: "dotted_long", in: "1704.10.00", want: "170410", valid: true},
		{name: "eight_digit", in: "0801.12.00", want: "080112", valid: true},
		{name: "already_clean", in: "151311", want: "151311", valid: true},
		{name: "four_digit_padded", in: "0801", want: "080100", valid: true},
		{name: "chapter_padded", in: "08", want: "080000", valid: true},
		{name: "whitespace_and_junk", in: " 3401.11 ", want: "340111", valid: true},
		{name: "empty", in: "", valid: false},
		{name: "no_digits", in: "abc", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CleanCode(tt.in)
			require.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanCodeIdempotent(t *testing.T) {
	for _, in := range []string{"0801.12", "1704.10.00", "08", "080112"} {
		once, ok := CleanCode(in)
		require.True(t, ok)
		twice, ok := CleanCode(once)
		require.True(t, ok)
		assert.Equal(t, once, twice, "CleanCode must be idempotent for %q", in)
	}
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("08"))
	assert.True(t, ValidCode("0801"))
	assert.True(t, ValidCode("080112"))
	assert.False(t, ValidCode(""))
	assert.False(t, ValidCode("080"))
	assert.False(t, ValidCode("08011"))
	assert.False(t, ValidCode("08a112"))
	assert.False(t, ValidCode("08011234"))
}

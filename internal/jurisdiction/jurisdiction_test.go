package jurisdiction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSize(t *testing.T) {
	require.Len(t, All, 51)
	seen := map[string]bool{}
	for _, j := range All {
		assert.Len(t, j.Code, 2)
		assert.False(t, seen[j.Code], "duplicate code %s", j.Code)
		seen[j.Code] = true
	}
}

func TestByCodeAnyCase(t *testing.T) {
	for _, j := range All {
		got, ok := ByCode(strings.ToLower(j.Code))
		require.True(t, ok, j.Code)
		assert.Equal(t, j.Name, got.Name)
	}
	_, ok := ByCode("XX")
	assert.False(t, ok)
}

func TestCodeForName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"California", "CA"},
		{"new york", "NY"},
		{"DISTRICT OF COLUMBIA", "DC"},
		{"  West   Virginia ", "WV"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := CodeForName(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCodeForVariation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Calif", "CA"},
		{"Calif.", "CA"},
		{"N.Y.", "NY"},
		{"Mass", "MA"},
		{"Washington D.C.", "DC"},
		{"Penn", "PA"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := CodeForVariation(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	for k, code := range Variations() {
		_, ok := ByCode(code)
		assert.True(t, ok, "variation %q points at unknown code %q", k, code)
	}
}

func TestIsStateToken(t *testing.T) {
	assert.True(t, IsStateToken("tx"))
	assert.True(t, IsStateToken("Texas"))
	assert.False(t, IsStateToken("Tex"))
	assert.False(t, IsStateToken("1200"))
}

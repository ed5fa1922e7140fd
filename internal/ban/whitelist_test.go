package ban

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhitelist_Contains(t *testing.T) {
	w, err := NewWhitelist([]string{"1.2.3.4", " 10.0.0.0/8 ", "", "::1"})
	require.NoError(t, err)

	tests := []struct {
		addr string
		want bool
	}{
		{"1.2.3.4", true},
		{"1.2.3.5", false},
		{"10.20.30.40", true},
		{"11.0.0.1", false},
		{"::1", true},
		{"999.1.1.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Contains(tt.addr))
		})
	}
	assert.Equal(t, 3, w.Len())
}

func TestWhitelist_InvalidPrefix(t *testing.T) {
	_, err := NewWhitelist([]string{"10.0.0.0/99"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "10.0.0.0/99")
}

func TestWhitelist_Nil(t *testing.T) {
	var w *Whitelist
	assert.False(t, w.Contains("1.2.3.4"))
	assert.Equal(t, 0, w.Len())
}

func TestEnforcedSet(t *testing.T) {
	s := EnforcedSet([]FirewallEntry{{Address: "1.1.1.1", Scope: "Anywhere"}, {Address: "2.2.2.2"}})
	assert.True(t, s.Has("1.1.1.1"))
	assert.True(t, s.Has("2.2.2.2"))
	assert.False(t, s.Has("3.3.3.3"))
}

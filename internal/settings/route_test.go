package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "destination only",
			input:    "192.168.200.0/24",
			expected: "192.168.200.0/24",
		},
		{
			name:     "destination and next hop",
			input:    "192.168.200.0/24 192.168.1.1",
			expected: "192.168.200.0/24 192.168.1.1",
		},
		{
			name:     "metric and attributes",
			input:    "10.0.0.0/8 10.0.0.1 20 table=5000 onlink=true",
			expected: "10.0.0.0/8 10.0.0.1 20 onlink=true table=5000",
		},
		{
			name:     "show record",
			input:    "{ ip = fd2e:446f:d85d:5::/64, nh = 2001:beef:cafe:10::2, mt = 10 }",
			expected: "fd2e:446f:d85d:5::/64 2001:beef:cafe:10::2 10",
		},
		{
			name:     "show record without next hop",
			input:    "{ ip = 192.168.200.0/24 }",
			expected: "192.168.200.0/24",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRoute(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, r.String())
		})
	}
}

func TestParseRouteErrors(t *testing.T) {
	for _, input := range []string{"", "10.0.0.0/8 10.0.0.1 5 6", "{ nh = 10.0.0.1 }", "10.0.0.0/8 metric=abc"} {
		_, err := ParseRoute(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestRouteCanonical(t *testing.T) {
	canonical := func(s string) string {
		t.Helper()
		r, err := ParseRoute(s)
		require.NoError(t, err)
		c, err := r.Canonical()
		require.NoError(t, err)
		return c
	}

	t.Run("show record and command form agree", func(t *testing.T) {
		assert.Equal(t,
			canonical("{ ip = 192.168.200.0/24, nh = 192.168.1.1 }"),
			canonical("192.168.200.0/24 192.168.1.1"))
	})

	t.Run("explicit defaults match implicit defaults", func(t *testing.T) {
		assert.Equal(t,
			canonical("192.168.200.0/24"),
			canonical("192.168.200.0/24 0.0.0.0 -1 table=0 tos=0 mtu=0 onlink=false"))
	})

	t.Run("host route gets full prefix", func(t *testing.T) {
		assert.Equal(t, canonical("10.1.1.1/32"), canonical("10.1.1.1"))
		assert.Equal(t, canonical("2001:db8::1/128"), canonical("2001:db8::1"))
	})

	t.Run("metric differs", func(t *testing.T) {
		assert.NotEqual(t, canonical("10.0.0.0/8 10.0.0.1 5"), canonical("10.0.0.0/8 10.0.0.1 6"))
	})

	t.Run("format", func(t *testing.T) {
		assert.Equal(t,
			"{ip=192.168.200.0/24,nh=192.168.1.1,metric=10,table=default,tos=default,mtu=default,onlink=false}",
			canonical("192.168.200.0/24 192.168.1.1 10"))
	})

	t.Run("invalid destination", func(t *testing.T) {
		r, err := ParseRoute("not-an-ip 10.0.0.1")
		require.NoError(t, err)
		_, err = r.Canonical()
		assert.Error(t, err)
	})
}

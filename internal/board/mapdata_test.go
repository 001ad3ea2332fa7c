package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMap(t *testing.T) {
	t.Parallel()

	m, err := LoadMap("us")
	require.NoError(t, err)

	assert.Equal(t, "us", m.Model)
	assert.Greater(t, len(m.Links), 5)
	assert.Len(t, m.Zones, 3)
	assert.Contains(t, m.Cities, "seattle")
	assert.Empty(t, m.Cities["seattle"])

	n := m.Neighbours("cheyenne")
	assert.Equal(t, 0, n["denver"])
	assert.Equal(t, 9, n["billings"])
}

func TestLoadMapUnknown(t *testing.T) {
	t.Parallel()

	_, err := LoadMap("atlantis")
	assert.Error(t, err)
}

func TestParseMapErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `map "x" {`},
		{"missing", `map "y" {}`},
		{"unknown city", `
map "x" {
  zone "a" {
    cities = ["one"]
  }
  link {
    from = "one"
    to   = "two"
    cost = 1
  }
}`},
		{"duplicate city", `
map "x" {
  zone "a" {
    cities = ["one"]
  }
  zone "b" {
    cities = ["one"]
  }
}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMap([]byte(tt.src), "test.hcl", "x")
			assert.Error(t, err)
		})
	}
}

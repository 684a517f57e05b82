package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountryToISO(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Germany", "DE"},
		{"germany", "DE"},
		{"  France ", "FR"},
		{"Vietnam", "VN"},
		{"Viet Nam", "VN"},
		{"USA", "US"},
		{"UK", "GB"},
		{"de", "DE"},
		{"", ""},
		{"Atlantis", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CountryToISO(tt.in))
		})
	}
}

func TestISOToFlag(t *testing.T) {
	assert.Equal(t, "🇩🇪", ISOToFlag("DE"))
	assert.Equal(t, "🇻🇳", ISOToFlag("vn"))
	assert.Equal(t, "", ISOToFlag("D"))
	assert.Equal(t, "", ISOToFlag("1A"))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Linkedin", Capitalize("linkedin"))
	assert.Equal(t, "", Capitalize(""))
	assert.Equal(t, "Élan", Capitalize("élan"))
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(32)
	assert.NoError(t, err)
	b, err := RandomToken(32)
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLostReason(t *testing.T) {
	testCases := []struct {
		raw    string
		expect string
	}{
		{"Fora do ICP - porte pequeno", "Fora do ICP"},
		{"Lead fora do ICP", "Fora do ICP"},
		{"Desqualificado pelo time BrandSpot", "Desqualificado (BrandSpot)"},
		{"desqualificado (brandspot)", "Desqualificado (BrandSpot)"},
		{"Sem contato após 5 tentativas", "Sem contato"},
		{"sem contato", "Sem contato"},
		{"Preço alto", "Preço alto"},
		{"Fechou com concorrente", "Fechou com concorrente"},
	}
	for _, tc := range testCases {
		assert.Equalf(t, tc.expect, NormalizeLostReason(tc.raw), "normalize %q", tc.raw)
	}
}

func TestNormalizeLostReasonIdempotent(t *testing.T) {
	raws := []string{
		"Fora do ICP - porte pequeno",
		"Desqualificado pelo time BrandSpot",
		"Sem contato após 5 tentativas",
		"Preço alto",
	}
	for _, raw := range raws {
		once := NormalizeLostReason(raw)
		assert.Equalf(t, once, NormalizeLostReason(once), "re-normalizing %q", raw)
	}
}

func TestMergeLostReasons(t *testing.T) {
	merged := MergeLostReasons(map[string]int{
		"Fora do ICP - porte pequeno":      3,
		"Lead fora do ICP":                 2,
		"Sem contato após 5 tentativas":    4,
		"sem contato":                      1,
		"Preço alto":                       5,
	})

	assert.Equal(t, map[string]int{
		"Fora do ICP": 5,
		"Sem contato": 4 + 1,
		"Preço alto":  5,
	}, merged)

	assert.Nil(t, MergeLostReasons(nil))
}

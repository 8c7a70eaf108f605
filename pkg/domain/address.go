package domain

import (
	"strings"
	"unicode"
)

// Address is a resolved postal address (CEP lookup result).
type Address struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro,omitempty"`
	Complemento string `json:"complemento,omitempty"`
	Bairro      string `json:"bairro,omitempty"`
	Localidade  string `json:"localidade"`
	Estado      string `json:"estado"`
	UF          string `json:"uf"`
	Regiao      string `json:"regiao,omitempty"`
	DDD         string `json:"ddd,omitempty"`
	Siafi       string `json:"siafi,omitempty"`
}

// State returns the state name, falling back to the UF code.
func (a Address) State() string {
	if a.Estado != "" {
		return a.Estado
	}
	return a.UF
}

// Summary is the short "city - UF" form shown after a successful lookup.
func (a Address) Summary() string {
	uf := a.UF
	if uf == "" {
		uf = a.Estado
	}
	if uf == "" {
		return a.Localidade
	}
	return a.Localidade + " - " + uf
}

// GeocodeQuery is the free-text query used for coordinate lookups.
func (a Address) GeocodeQuery() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Localidade, a.State(), a.CEP} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// NormalizeCEP strips everything but digits from a postal code.
func NormalizeCEP(cep string) string {
	var b strings.Builder
	for _, r := range cep {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *float64
	}{
		{name: "millions suffix", input: "$20M", expected: floatPtr(20_000_000)},
		{name: "large millions", input: "$262M", expected: floatPtr(262_000_000)},
		{name: "thousands suffix with decimal", input: "$1.5K", expected: floatPtr(1500)},
		{name: "comma separators stripped", input: "250,000,000", expected: floatPtr(250_000_000)},
		{name: "currency and spaces stripped", input: "$ 80 M", expected: floatPtr(80_000_000)},
		{name: "plain number", input: "50000000", expected: floatPtr(50_000_000)},
		{name: "no number", input: "sin límite", expected: nil},
		{name: "empty", input: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAmount(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.expected, *got, 0.001)
		})
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *float64
	}{
		{name: "percent sign", input: "6.50%", expected: floatPtr(6.50)},
		{name: "bare decimal", input: "6.5", expected: floatPtr(6.5)},
		{name: "trailing qualifier", input: "12.5% E.A.", expected: floatPtr(12.5)},
		{name: "integer", input: "14", expected: floatPtr(14)},
		{name: "leading text rejected", input: "Desde 9.99%", expected: nil},
		{name: "no number", input: "consultar", expected: nil},
		{name: "empty", input: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRate(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.expected, *got, 0.001)
		})
	}
}

func TestParseTerm(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *int
	}{
		{name: "years converted to months", input: "30 años", expected: intPtr(360)},
		{name: "twenty years", input: "20 años", expected: intPtr(240)},
		{name: "explicit months", input: "24 meses", expected: intPtr(24)},
		{name: "bare number assumed months", input: "360", expected: intPtr(360)},
		{name: "no number", input: "según perfil", expected: nil},
		{name: "empty", input: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTerm(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.expected, *got)
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "already normalized", input: "Bancolombia", expected: "bancolombia"},
		{name: "accents stripped", input: "Banco de Bogotá", expected: "banco_de_bogota"},
		{name: "punctuation dropped", input: "Banco Davivienda S.A.", expected: "banco_davivienda_sa"},
		{name: "enye", input: "Compañía", expected: "compania"},
		{name: "whitespace runs collapse", input: "Banco   AV   Villas", expected: "banco_av_villas"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeKey(tt.input))
		})
	}
}

func TestExtractBenefitValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *string
	}{
		{name: "signed basis points", input: "+200 pbs con nómina", expected: strPtr("+200 pbs")},
		{name: "negative basis points", input: "Aplica -50 pbs", expected: strPtr("-50 pbs")},
		{name: "percent without space", input: "0.5% de descuento", expected: strPtr("0.5%")},
		{name: "points word keeps case", input: "2 Puntos menos", expected: strPtr("2 Puntos")},
		{name: "bare number", input: "hasta 100", expected: strPtr("100")},
		{name: "no number", input: "avalúo gratis", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractBenefitValue(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.expected, *got)
		})
	}
}

func TestMapCreditType(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "Crédito hipotecario para compra de vivienda", expected: CreditTypeMortgage},
		{input: "Crédito de consumo", expected: CreditTypeConsumer},
		{input: "Crédito de vehículo", expected: CreditTypeVehicle},
		{input: "Leasing habitacional", expected: CreditTypeLeasing},
		{input: "algo raro", expected: CreditTypeMortgage},
		{input: "", expected: CreditTypeMortgage},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapCreditType(tt.input))
		})
	}
}

func TestMapHousingType(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "VIS", expected: HousingTypeVIS},
		{input: "No VIS", expected: HousingTypeNoVIS},
		{input: "no_vis", expected: HousingTypeNoVIS},
		{input: "VIP", expected: HousingTypeVIP},
		{input: "Aplica para ambos", expected: HousingTypeBoth},
		{input: "desconocido", expected: HousingTypeBoth},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapHousingType(tt.input))
		})
	}
}

func TestMapDenomination(t *testing.T) {
	assert.Equal(t, DenominationUVR, MapDenomination("UVR"))
	assert.Equal(t, DenominationPesos, MapDenomination("Pesos"))
	assert.Equal(t, DenominationPesos, MapDenomination(""))
}

func TestMapRateType(t *testing.T) {
	assert.Equal(t, RateTypeEffectiveAnnual, MapRateType("Tasa efectiva anual"))
	assert.Equal(t, RateTypeNominalMonthly, MapRateType("Tasa nominal mensual"))
	assert.Equal(t, RateTypeEffectiveAnnual, MapRateType("otra cosa"))
}

func TestMapPaymentType(t *testing.T) {
	t.Run("nil input returns nil", func(t *testing.T) {
		assert.Nil(t, MapPaymentType(nil))
	})

	t.Run("blank input returns nil", func(t *testing.T) {
		assert.Nil(t, MapPaymentType(strPtr("  ")))
	})

	t.Run("variable", func(t *testing.T) {
		got := MapPaymentType(strPtr("Cuota variable"))
		require.NotNil(t, got)
		assert.Equal(t, PaymentTypeVariable, *got)
	})

	t.Run("anything else is fixed", func(t *testing.T) {
		got := MapPaymentType(strPtr("Cuota fija"))
		require.NotNil(t, got)
		assert.Equal(t, PaymentTypeFixed, *got)
	})
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

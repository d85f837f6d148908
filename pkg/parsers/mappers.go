package parsers

import "strings"

// Catalog codes produced by the mappers. They line up with the seed rows in
// the reference tables.
const (
	CreditTypeMortgage = "hipotecario"
	CreditTypeConsumer = "consumo"
	CreditTypeVehicle  = "vehiculo"
	CreditTypeLeasing  = "leasing"

	HousingTypeVIS   = "vis"
	HousingTypeNoVIS = "no_vis"
	HousingTypeVIP   = "vip"
	HousingTypeBoth  = "aplica_ambos"

	DenominationUVR   = "uvr"
	DenominationPesos = "pesos"

	RateTypeEffectiveAnnual = "efectiva_anual"
	RateTypeNominalMonthly  = "nominal_mensual"

	PaymentTypeFixed    = "cuota_fija"
	PaymentTypeVariable = "cuota_variable"
)

// MapCreditType classifies the scraped credit type text. Unrecognized input
// defaults to mortgage since every source page today is a mortgage listing.
func MapCreditType(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "hipotecario"):
		return CreditTypeMortgage
	case strings.Contains(lowered, "consumo"):
		return CreditTypeConsumer
	case strings.Contains(lowered, "vehiculo"), strings.Contains(lowered, "vehículo"):
		return CreditTypeVehicle
	case strings.Contains(lowered, "leasing"):
		return CreditTypeLeasing
	default:
		return CreditTypeMortgage
	}
}

// MapHousingType classifies the scraped housing type text. "no vis" must be
// checked before "vis" since it contains it.
func MapHousingType(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "no vis"), strings.Contains(lowered, "no_vis"):
		return HousingTypeNoVIS
	case strings.Contains(lowered, "vip"):
		return HousingTypeVIP
	case strings.Contains(lowered, "ambos"):
		return HousingTypeBoth
	case strings.Contains(lowered, "vis"):
		return HousingTypeVIS
	default:
		return HousingTypeBoth
	}
}

// MapDenomination classifies the scraped denomination text.
func MapDenomination(text string) string {
	if strings.Contains(strings.ToLower(text), "uvr") {
		return DenominationUVR
	}
	return DenominationPesos
}

// MapRateType classifies the scraped rate type text.
func MapRateType(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "nominal"):
		return RateTypeNominalMonthly
	case strings.Contains(lowered, "efectiva"):
		return RateTypeEffectiveAnnual
	default:
		return RateTypeEffectiveAnnual
	}
}

// MapPaymentType classifies the scraped payment type text. Returns nil when
// the source omits the field entirely, which is common.
func MapPaymentType(text *string) *string {
	if text == nil || strings.TrimSpace(*text) == "" {
		return nil
	}

	code := PaymentTypeFixed
	if strings.Contains(strings.ToLower(*text), "variable") {
		code = PaymentTypeVariable
	}
	return &code
}

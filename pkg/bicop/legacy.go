package bicop

// tllLegacyCode is the integer code older models use for the transformation
// kernel family.
const tllLegacyCode = 1001

// FamilyFromCode maps a legacy integer family code onto the enumeration.
// Codes follow declaration order: 0 indep, 1 gaussian, 2 student, 3 clayton ...
// and 1001 is accepted for tll.
func FamilyFromCode(code int) (Family, error) {
	if code == tllLegacyCode {
		return TLL, nil
	}
	f := Family(code)
	if !f.Valid() {
		return 0, invalidf(ErrUnknownFamily, "code %d", code)
	}
	return f, nil
}

// NewFromCode builds a Bicop from a legacy integer code using the older
// (family, parameters, rotation) argument order.
func NewFromCode(code int, parameters []float64, rotation int) (*Bicop, error) {
	f, err := FamilyFromCode(code)
	if err != nil {
		return nil, err
	}
	return New(f, rotation, parameters)
}

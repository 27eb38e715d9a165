package identity

import (
	"errors"
	"strings"
)

// ErrInvalidDocumentNumber is returned when a tax identifier fails
// normalization or checksum validation.
var ErrInvalidDocumentNumber = errors.New("invalid document number")

const (
	individualDocumentLength   = 11
	organizationDocumentLength = 14
)

// DocumentNumber is a validated tax identifier stored as a pure digit string:
// 11 digits for individuals, 14 for organizations.
type DocumentNumber struct {
	value string
}

// ParseDocumentNumber strips every non-digit from raw and validates the
// result. kind forces validation against that scheme; when empty the scheme
// follows the length. A value must always satisfy the scheme matching its own
// length.
func ParseDocumentNumber(raw string, kind UserType) (DocumentNumber, error) {
	digits := stripNonDigits(raw)

	if len(digits) != individualDocumentLength && len(digits) != organizationDocumentLength {
		return DocumentNumber{}, ErrInvalidDocumentNumber
	}
	if (kind == TypeIndividual || len(digits) == individualDocumentLength) && !validIndividualDocument(digits) {
		return DocumentNumber{}, ErrInvalidDocumentNumber
	}
	if (kind == TypeOrganization || len(digits) == organizationDocumentLength) && !validOrganizationDocument(digits) {
		return DocumentNumber{}, ErrInvalidDocumentNumber
	}

	return DocumentNumber{value: digits}, nil
}

// MustParseDocumentNumber is like ParseDocumentNumber but panics on invalid
// input. Intended for fixtures.
func MustParseDocumentNumber(raw string) DocumentNumber {
	doc, err := ParseDocumentNumber(raw, "")
	if err != nil {
		panic(err)
	}
	return doc
}

// String returns the normalized digits.
func (d DocumentNumber) String() string {
	return d.value
}

// IsZero reports whether d was never successfully parsed.
func (d DocumentNumber) IsZero() bool {
	return d.value == ""
}

// Formatted renders the conventional punctuation: 000.000.000-00 for
// individuals and 00.000.000/0000-00 for organizations.
func (d DocumentNumber) Formatted() string {
	v := d.value
	switch len(v) {
	case individualDocumentLength:
		return v[0:3] + "." + v[3:6] + "." + v[6:9] + "-" + v[9:11]
	case organizationDocumentLength:
		return v[0:2] + "." + v[2:5] + "." + v[5:8] + "/" + v[8:12] + "-" + v[12:14]
	default:
		return v
	}
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// validIndividualDocument checks the two trailing check digits of an 11-digit
// identifier. Weights run from t+1 down to 2 over the t preceding digits.
func validIndividualDocument(v string) bool {
	if len(v) != individualDocumentLength || allSameDigit(v) {
		return false
	}
	for t := 9; t < 11; t++ {
		sum := 0
		for c := 0; c < t; c++ {
			sum += int(v[c]-'0') * ((t + 1) - c)
		}
		if int(v[t]-'0') != ((10*sum)%11)%10 {
			return false
		}
	}
	return true
}

// validOrganizationDocument checks the two trailing check digits of a
// 14-digit identifier. Weights start at t-7 and descend, wrapping from 2 to 9.
func validOrganizationDocument(v string) bool {
	if len(v) != organizationDocumentLength || allSameDigit(v) {
		return false
	}
	for t := 12; t < 14; t++ {
		sum := 0
		weight := t - 7
		for i := 0; i < t; i++ {
			sum += int(v[i]-'0') * weight
			if weight == 2 {
				weight = 9
			} else {
				weight--
			}
		}
		if int(v[t]-'0') != ((10*sum)%11)%10 {
			return false
		}
	}
	return true
}

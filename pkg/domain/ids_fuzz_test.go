//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseOfficerID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
func FuzzParseOfficerID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE officers;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseOfficerID(input)

		// Either a valid ID or an error, never both
		if err == nil {
			roundTrip, err2 := ParseOfficerID(id.String())
			if err2 != nil {
				t.Errorf("Valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("Round-trip changed ID value")
			}
		}

		// Non-UTF8 input must be rejected
		if !utf8.ValidString(input) && err == nil {
			t.Error("Non-UTF8 input was accepted")
		}
	})
}

// FuzzParseDocumentNumber verifies document number parsing never panics and
// accepted values survive a round-trip unchanged.
func FuzzParseDocumentNumber(f *testing.F) {
	f.Add("")
	f.Add("SB-20250114-9f2c4ab1d803")
	f.Add("SB-20250114-")
	f.Add("XX-20250114-9f2c4ab1d803")
	f.Add("SB--suffix")
	f.Add(string([]byte{0xff, 0xfe}))

	f.Fuzz(func(t *testing.T, input string) {
		n, err := ParseDocumentNumber(input)

		if err == nil {
			roundTrip, err2 := ParseDocumentNumber(n.String())
			if err2 != nil {
				t.Errorf("Accepted value failed round-trip: %v", err2)
			}
			if roundTrip != n {
				t.Error("Round-trip changed the document number")
			}
		}
	})
}

package domain

import (
	"testing"
)

// FuzzParseFrameworkID checks that parsing never panics on arbitrary input
// and that any accepted ID round-trips through String.
func FuzzParseFrameworkID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE frameworks;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		fid, err := ParseFrameworkID(input)
		if err != nil {
			return
		}
		roundTrip, err := ParseFrameworkID(fid.String())
		if err != nil {
			t.Errorf("accepted ID failed round-trip: %v", err)
		}
		if roundTrip != fid {
			t.Error("round-trip changed the ID value")
		}
	})
}

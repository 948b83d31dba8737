package config

import (
	"testing"
	"time"
)

func FuzzEntityIDUnmarshal(f *testing.F) {
	f.Add("0x0011223344556677")
	f.Add("0011223344556677")
	f.Add("0x0")
	f.Add("")
	f.Add("not-hex")
	f.Add("0xFFFFFFFFFFFFFFFF")
	f.Add("0xGGGG")

	f.Fuzz(func(t *testing.T, input string) {
		var e EntityID
		if err := e.UnmarshalTOML(input); err != nil {
			return
		}
		// A successful parse must be deterministic: parsing the same
		// input again succeeds and yields the same EntityID.
		var e2 EntityID
		if err := e2.UnmarshalTOML(input); err != nil {
			t.Fatalf("re-parse of accepted input %q failed: %v", input, err)
		}
		if e != e2 {
			t.Fatalf("parse is not deterministic for %q: %v != %v", input, e, e2)
		}
	})
}

func FuzzDurationUnmarshal(f *testing.F) {
	f.Add("250ms")
	f.Add("10s")
	f.Add("0s")
	f.Add("-1s")
	f.Add("")
	f.Add("notaduration")

	f.Fuzz(func(t *testing.T, input string) {
		var d Duration
		if err := d.UnmarshalTOML(input); err != nil {
			return
		}
		if time.Duration(d).String() == "" {
			t.Fatalf("parsed duration stringified to empty for %q", input)
		}
	})
}

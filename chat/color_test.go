package chat

import "testing"

func TestDecodeARGB(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "000000"},
		{-1, "FFFFFF"},          // 0xFFFFFFFF, alpha dropped
		{-16777216, "000000"},   // opaque black
		{-16711936, "00FF00"},   // opaque green
		{4294901760, "FF0000"},  // unsigned form of opaque red
		{0xFF1565C0, "1565C0"},  // superchat blue tier
		{0x00FFFFFF, "FFFFFF"},  // fully transparent white
	}
	for _, c := range cases {
		if got := DecodeARGB(c.in); got != c.want {
			t.Errorf("DecodeARGB(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

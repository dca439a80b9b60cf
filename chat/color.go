package chat

import "fmt"

// DecodeARGB renders a wire color as a 6-digit uppercase hex RGB
// string. The protocol transmits colors as 32-bit ARGB values that may
// arrive as negative numbers when the alpha byte is set; the value is
// reinterpreted as unsigned and the alpha byte masked off.
//
// DecodeARGB(-16711936) == "00FF00" (0xFF00FF00).
func DecodeARGB(argb int64) string {
	return fmt.Sprintf("%06X", uint32(argb)&0xFFFFFF)
}

package ime

import (
	"fmt"
	"strings"
)

// InputStyle is the negotiated preedit and status feedback style, using
// the XIM bit values.
type InputStyle uint32

const (
	PreeditArea      InputStyle = 0x0001
	PreeditCallbacks InputStyle = 0x0002
	PreeditPosition  InputStyle = 0x0004
	PreeditNothing   InputStyle = 0x0008
	PreeditNone      InputStyle = 0x0010
	StatusArea       InputStyle = 0x0100
	StatusCallbacks  InputStyle = 0x0200
	StatusNothing    InputStyle = 0x0400
	StatusNone       InputStyle = 0x0800
)

var supportedStyles = [...]InputStyle{
	PreeditNothing | StatusNothing,
	PreeditPosition | StatusArea,
	PreeditPosition | StatusNothing,
	PreeditPosition | StatusNone,
	PreeditCallbacks | StatusArea,
	PreeditCallbacks | StatusNothing,
	PreeditCallbacks | StatusNone,
}

// SupportedStyles returns the styles offered during negotiation, in
// preference order.
func SupportedStyles() []InputStyle {
	out := make([]InputStyle, len(supportedStyles))
	copy(out, supportedStyles[:])
	return out
}

// Supported reports whether s is one of SupportedStyles.
func (s InputStyle) Supported() bool {
	for _, st := range supportedStyles {
		if s == st {
			return true
		}
	}
	return false
}

// Inline reports whether preedit feedback is delegated to the client.
// Every other style, including the root style, uses an overlay window.
func (s InputStyle) Inline() bool {
	return s&PreeditCallbacks != 0
}

var styleNames = []struct {
	bit  InputStyle
	name string
}{
	{PreeditArea, "PreeditArea"},
	{PreeditCallbacks, "PreeditCallbacks"},
	{PreeditPosition, "PreeditPosition"},
	{PreeditNothing, "PreeditNothing"},
	{PreeditNone, "PreeditNone"},
	{StatusArea, "StatusArea"},
	{StatusCallbacks, "StatusCallbacks"},
	{StatusNothing, "StatusNothing"},
	{StatusNone, "StatusNone"},
}

func (s InputStyle) String() string {
	var parts []string
	rest := s
	for _, n := range styleNames {
		if s&n.bit != 0 {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "|")
}

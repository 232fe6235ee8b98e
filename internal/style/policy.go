package style

import (
	"encoding/binary"
	"fmt"
)

// AccentState selects how a surface background composites with the content
// behind it.
type AccentState uint32

const (
	AccentDisabled            AccentState = 0
	AccentGradient            AccentState = 1
	AccentTransparentGradient AccentState = 2
	AccentBlurBehind          AccentState = 3
	AccentAcrylicBlurBehind   AccentState = 4
	AccentHostBackdrop        AccentState = 5
	AccentInvalidState        AccentState = 6
)

func (s AccentState) String() string {
	switch s {
	case AccentDisabled:
		return "disabled"
	case AccentGradient:
		return "gradient"
	case AccentTransparentGradient:
		return "transparent-gradient"
	case AccentBlurBehind:
		return "blur-behind"
	case AccentAcrylicBlurBehind:
		return "acrylic-blur-behind"
	case AccentHostBackdrop:
		return "host-backdrop"
	case AccentInvalidState:
		return "invalid"
	default:
		return fmt.Sprintf("accent(%d)", uint32(s))
	}
}

// DefaultFlags is the flags word the shell itself uses when it asks for its
// native transparent background.
const DefaultFlags uint32 = 0x13

// PolicySize is the size of the encoded policy buffer.
const PolicySize = 16

// AccentPolicy is the parameter block handed to the compositor.
type AccentPolicy struct {
	State       AccentState
	Flags       uint32
	Color       Color
	AnimationID int32
}

// DefaultPolicy is the shell's own un-styled background. Resetting a surface
// to it leaves the surface as if taskbg never ran.
func DefaultPolicy() AccentPolicy {
	return AccentPolicy{
		State: AccentTransparentGradient,
		Flags: DefaultFlags,
	}
}

// IsDefault reports whether p equals DefaultPolicy.
func (p AccentPolicy) IsDefault() bool {
	return p == DefaultPolicy()
}

// Bytes encodes the policy in its little-endian wire layout.
func (p AccentPolicy) Bytes() []byte {
	buf := make([]byte, PolicySize)
	binary.LittleEndian.PutUint32(buf[0:], uint32(p.State))
	binary.LittleEndian.PutUint32(buf[4:], p.Flags)
	binary.LittleEndian.PutUint32(buf[8:], uint32(p.Color))
	binary.LittleEndian.PutUint32(buf[12:], uint32(p.AnimationID))
	return buf
}

// Words returns the policy as four 32-bit words.
func (p AccentPolicy) Words() []uint32 {
	return []uint32{uint32(p.State), p.Flags, uint32(p.Color), uint32(p.AnimationID)}
}

// ParsePolicy decodes a policy buffer produced by Bytes or by the shell.
func ParsePolicy(buf []byte) (AccentPolicy, error) {
	if len(buf) < PolicySize {
		return AccentPolicy{}, fmt.Errorf("accent policy buffer too short: %d bytes", len(buf))
	}
	return AccentPolicy{
		State:       AccentState(binary.LittleEndian.Uint32(buf[0:])),
		Flags:       binary.LittleEndian.Uint32(buf[4:]),
		Color:       Color(binary.LittleEndian.Uint32(buf[8:])),
		AnimationID: int32(binary.LittleEndian.Uint32(buf[12:])),
	}, nil
}

func (p AccentPolicy) String() string {
	return fmt.Sprintf("%s flags=%#x color=%#08x", p.State, p.Flags, uint32(p.Color))
}

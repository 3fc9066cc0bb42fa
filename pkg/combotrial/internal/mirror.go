package internal

import "github.com/kaijuforge/combotrial/pkg/combotrial/constants"

// MirrorFrame rewrites f's direction per the fixed (1,3)/(4,6)/(7,9)
// involution for mirrored-side play (§4.4). Held/pressed/released button
// sets are left untouched — mirroring only ever concerns direction.
func MirrorFrame(f InputFrame) InputFrame {
	f.Direction = constants.Mirror(f.Direction)
	return f
}

package compositor

import (
	"github.com/paulmach/orb"

	"github.com/samirrijal/mapbuffer/internal/core/ports"
)

// Probe slots, in the order the boundary indexer reports them. Slots 0 and
// 1 form one same-side pair, slots 2 and 3 the other.
const (
	probeStartLeft = iota
	probeEndLeft
	probeStartRight
	probeEndRight
)

var probeNames = [4]string{"start-left", "end-left", "start-right", "end-right"}

// buildProbes rotates the whole line a quarter turn about each endpoint.
// The probes are only used to find reference points on the buffer boundary.
func buildProbes(k ports.GeometryKernel, line orb.LineString) [4]orb.LineString {
	start, end := line[0], line[len(line)-1]

	var p [4]orb.LineString
	p[probeStartLeft] = k.RotateAboutPivot(line, -90, start)
	p[probeEndLeft] = k.RotateAboutPivot(line, 90, end)
	p[probeStartRight] = k.RotateAboutPivot(line, 90, start)
	p[probeEndRight] = k.RotateAboutPivot(line, -90, end)
	return p
}

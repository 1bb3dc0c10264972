package compositor

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
)

const acceptedLineKinds = "a coordinate sequence or a line handle"

// NormalizeLine turns a line input into an owned coordinate sequence.
func NormalizeLine(in domain.LineInput) (orb.LineString, error) {
	var line orb.LineString
	switch v := in.(type) {
	case domain.Coordinates:
		line = orb.LineString(v)
	case domain.Handle:
		if v.Shape == nil {
			return nil, fmt.Errorf("%w: empty handle, want %s", domain.ErrUnsupportedInputType, acceptedLineKinds)
		}
		ls, ok := v.Shape.Geom().(orb.LineString)
		if !ok {
			return nil, fmt.Errorf("%w: handle holds %T, want %s", domain.ErrUnsupportedInputType, v.Shape.Geom(), acceptedLineKinds)
		}
		line = ls
	default:
		return nil, fmt.Errorf("%w: got %T, want %s", domain.ErrUnsupportedInputType, in, acceptedLineKinds)
	}
	if len(line) < 2 {
		return nil, fmt.Errorf("%w: line has %d, needs at least 2", domain.ErrInvalidInputKind, len(line))
	}
	return line.Clone(), nil
}

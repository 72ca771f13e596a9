package hashring

import (
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

var (
	// ErrDuplicatePosition is returned when a point is being put onto already
	// taken position. Placement of virtual nodes recovers from it by salting.
	ErrDuplicatePosition = errors.New("hashring: duplicate position", j.C("ERR_9d1c3f6b52a04e17"))

	// ErrRingFull is returned when a virtual node can not be placed after
	// all salted attempts collided.
	ErrRingFull = errors.New("hashring: ring is full", j.C("ERR_4b7e08a1c9d35f62"))

	// ErrEmptyRing is returned by lookups on a ring without nodes.
	ErrEmptyRing = errors.New("hashring: ring is empty", j.C("ERR_e20f5a7d13b86c94"))

	ErrNodeAlreadyPresent = errors.New("hashring: node already exists", j.C("ERR_71a6c2e94f0b38d5"))
	ErrNodeNotFound       = errors.New("hashring: node doesn't exist", j.C("ERR_c85d3b0e6a1f7924"))

	// ErrInsufficientNodes is returned when less distinct nodes than
	// requested replicas are available.
	ErrInsufficientNodes = errors.New("hashring: insufficient nodes", j.C("ERR_3f92e6d8b07a15c4"))

	ErrInvalidNode     = errors.New("hashring: invalid node", j.C("ERR_a6048b1e7d2c95f3"))
	ErrInvalidSnapshot = errors.New("hashring: invalid snapshot", j.C("ERR_58e1d7c3a9f20b46"))
)

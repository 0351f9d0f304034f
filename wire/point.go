package wire

// Point is one positional sample: a 2D position, an RGBA color with float
// channels in [0,1], and the id of the entity the sample belongs to.
//
// Points are ephemeral: they are produced by Decode, flow through the
// reduction stages, and are either re-encoded or copied into an entity path.
type Point struct {
	X, Y       float32
	R, G, B, A float32
	EntityID   uint32
}

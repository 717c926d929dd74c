package kb

const (
	VectorLen = 1536
)

type Vector []float32

package flat

import "math"

// noMatchDistance is reported for vectors that cannot be compared.
var noMatchDistance = float32(math.MaxFloat32)

// L2DistanceSquared calculates the squared Euclidean distance.
// Ranking by it matches ranking by Euclidean distance without the square root.
func L2DistanceSquared(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return noMatchDistance
	}

	var sum float32
	for i := 0; i < len(a); i++ {
		diff := a[i] - b[i]
		sum += diff * diff
	}

	return sum
}

// L2Distance calculates the Euclidean distance.
func L2Distance(a, b []float32) float32 {
	sq := L2DistanceSquared(a, b)
	if sq == noMatchDistance {
		return sq
	}
	return float32(math.Sqrt(float64(sq)))
}

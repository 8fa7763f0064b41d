package motion

import (
	"math"
	"time"
)

// RawSample is a single wrist sensor reading: three-axis linear acceleration
// in G and three-axis rotation rate in rad/s, stamped with a monotonic
// timestamp by the source driver.
type RawSample struct {
	Timestamp time.Time

	AccelX float64
	AccelY float64
	AccelZ float64

	GyroX float64
	GyroY float64
	GyroZ float64
}

// Sample is the reduced form consumed by the swing detector: scalar
// magnitudes plus the per-axis rotation components used for swing path
// classification.
type Sample struct {
	Timestamp time.Time

	Accel    float64 // total acceleration magnitude, G
	Rotation float64 // total rotation-rate magnitude, rad/s

	RotationX float64
	RotationY float64
	RotationZ float64
}

// Reduce collapses the raw axis readings into the scalar form the detector
// operates on.
func (r RawSample) Reduce() Sample {
	return Sample{
		Timestamp: r.Timestamp,
		Accel:     math.Sqrt(r.AccelX*r.AccelX + r.AccelY*r.AccelY + r.AccelZ*r.AccelZ),
		Rotation:  math.Sqrt(r.GyroX*r.GyroX + r.GyroY*r.GyroY + r.GyroZ*r.GyroZ),
		RotationX: r.GyroX,
		RotationY: r.GyroY,
		RotationZ: r.GyroZ,
	}
}

package swing

import "github.com/swingworks/swingsense/internal/motion"

// classifyPath derives the swing path from the lateral rotation bias of the
// buffered x-axis rotation samples. With fewer than pathMinSamples buffered
// samples there is not enough signal to call a direction.
func classifyPath(buf *motion.Buffer) Path {
	if buf.Len() < pathMinSamples {
		return PathUnknown
	}

	xs := buf.LastRotationX(pathWindow)
	var sum float64
	for _, x := range xs {
		sum += x
	}
	avg := sum / float64(len(xs))

	switch {
	case avg > pathBiasRotation:
		return PathInsideOut
	case avg < -pathBiasRotation:
		return PathOverTheTop
	default:
		return PathNeutral
	}
}

// classifyType maps peak G and tempo ratio onto a swing category. The table
// is ordered; the first match wins.
func classifyType(peakAccel, tempoRatio float64) Type {
	switch {
	case peakAccel > 10 && tempoRatio > 2.0:
		return TypeFullSwing
	case peakAccel > 6 && tempoRatio > 2.0:
		return TypeIronSwing
	case peakAccel > 3 && peakAccel <= 6:
		return TypeChipOrPitch
	case peakAccel <= 3:
		return TypePutt
	default:
		return TypeUnknown
	}
}

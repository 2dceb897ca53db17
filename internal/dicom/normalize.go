package dicom

// normalizeToUint8 maps raw pixel samples into [0,255]. With hasWindow the
// (width, level) pair sets the clip range; otherwise the frame's own
// min/max is used, which keeps low-contrast acquisitions visible.
func normalizeToUint8(samples []float64, hasWindow bool, width, level float64) []uint8 {
	if len(samples) == 0 {
		return nil
	}

	var low, high float64
	if hasWindow {
		low = level - width/2
		high = level + width/2
	} else {
		low, high = samples[0], samples[0]
		for _, v := range samples {
			if v < low {
				low = v
			}
			if v > high {
				high = v
			}
		}
	}

	out := make([]uint8, len(samples))
	span := high - low
	for i, v := range samples {
		if v < low {
			v = low
		} else if v > high {
			v = high
		}
		if span > 0 {
			out[i] = uint8((v - low) / span * 255)
		}
	}
	return out
}

// invertSamples flips intensities in place for MONOCHROME1 data, where the
// minimum sample is displayed white.
func invertSamples(samples []float64) {
	if len(samples) == 0 {
		return
	}
	max := samples[0]
	for _, v := range samples {
		if v > max {
			max = v
		}
	}
	for i := range samples {
		samples[i] = max - samples[i]
	}
}

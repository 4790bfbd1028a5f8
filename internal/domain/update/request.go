package update

// Request is what an update client asks: is there an artifact for my image and
// device whose version differs from the one I run?
type Request struct {
	// Image is the image identifier.
	Image string
	// Device is the device type.
	Device string
	// CurrentVersion is the version currently installed on the device.
	CurrentVersion string
}

// Match returns the candidates built for the request's image and device.
// Versions are not part of the filter.
func Match(candidates []Candidate, req Request) []Candidate {
	var matched []Candidate

	for _, candidate := range candidates {
		if candidate.Image == req.Image && candidate.Device == req.Device {
			matched = append(matched, candidate)
		}
	}

	return matched
}

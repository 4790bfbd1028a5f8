package update

import "slices"

// Outcome is the non-error result kind of a resolution.
type Outcome int

const (
	// NoUpdateAvailable means the device already runs the offered version or nothing is offered.
	NoUpdateAvailable Outcome = iota
	// UpdateAvailable means a single artifact with a different version exists.
	UpdateAvailable
)

// String returns a label suitable for logs and metrics.
func (o Outcome) String() string {
	switch o {
	case UpdateAvailable:
		return "update_available"
	default:
		return "no_update"
	}
}

// Resolution is the answer to one Request.
type Resolution struct {
	// Outcome tells whether an update is available.
	Outcome Outcome
	// ArtifactName is set only when Outcome is UpdateAvailable.
	ArtifactName string
}

// Decide reduces the candidates matched for req to a Resolution.
//
// Zero matches or a single match carrying the current version mean no update.
// A single match with any other version is offered, even if it looks older.
// Two or more matches return an *AmbiguousCatalogError.
func Decide(matched []Candidate, req Request) (Resolution, error) {
	switch len(matched) {
	case 0:
		return Resolution{Outcome: NoUpdateAvailable}, nil
	case 1:
		if matched[0].Version == req.CurrentVersion {
			return Resolution{Outcome: NoUpdateAvailable}, nil
		}

		return Resolution{
			Outcome:      UpdateAvailable,
			ArtifactName: matched[0].ArtifactName,
		}, nil
	default:
		names := make([]string, 0, len(matched))
		for _, candidate := range matched {
			names = append(names, candidate.ArtifactName)
		}

		slices.Sort(names)

		return Resolution{}, &AmbiguousCatalogError{
			Image:         req.Image,
			Device:        req.Device,
			ArtifactNames: names,
		}
	}
}

// Resolve runs the parser, matcher and decision engine over a catalog listing.
// It also returns the names that were skipped as malformed.
func Resolve(names []string, layout Layout, req Request) (Resolution, []string, error) {
	candidates, skipped := ParseCatalog(names, layout)

	resolution, err := Decide(Match(candidates, req), req)

	return resolution, skipped, err
}

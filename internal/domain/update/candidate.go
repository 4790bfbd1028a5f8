package update

import (
	"fmt"
	"strings"
)

// Candidate is a catalog entry decoded into its image, device and version fields.
// Candidates live only for the duration of one resolution.
type Candidate struct {
	// Image is the image identifier field.
	Image string
	// Device is the device type field.
	Device string
	// Version is the version field, an opaque token.
	Version string
	// ArtifactName is the original filename, used to build the download location.
	ArtifactName string
}

// SplitFilename splits a filename into its stem fields and extension.
// The stem is everything before the last dot. Joining the fields with the
// separator, a dot and the extension yields the original filename.
func SplitFilename(name, separator string) ([]string, string, error) {
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return nil, "", fmt.Errorf("%w: %q has no extension", ErrMalformedFilename, name)
	}

	return strings.Split(name[:dot], separator), name[dot+1:], nil
}

// ParseFilename decodes one raw filename according to the layout.
// No case or whitespace normalization is applied.
func ParseFilename(name string, layout Layout) (*Candidate, error) {
	fields, _, err := SplitFilename(name, layout.Separator)
	if err != nil {
		return nil, err
	}

	if layout.maxField() >= len(fields) {
		return nil, fmt.Errorf("%w: %q has %d fields, layout needs %d",
			ErrMalformedFilename, name, len(fields), layout.maxField()+1)
	}

	return &Candidate{
		Image:        fields[layout.ImageField],
		Device:       fields[layout.DeviceField],
		Version:      fields[layout.VersionField],
		ArtifactName: name,
	}, nil
}

// ParseCatalog decodes every filename of a catalog listing.
// Entries that fail to parse are skipped and returned separately so a single
// stray file never breaks resolution for everyone else.
func ParseCatalog(names []string, layout Layout) ([]Candidate, []string) {
	var (
		candidates = make([]Candidate, 0, len(names))
		skipped    []string
	)

	for _, name := range names {
		candidate, err := ParseFilename(name, layout)
		if err != nil {
			skipped = append(skipped, name)
			continue
		}

		candidates = append(candidates, *candidate)
	}

	return candidates, skipped
}

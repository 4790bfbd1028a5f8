package update

import "fmt"

const (
	// DefaultSeparator separates the fields of an artifact filename stem.
	DefaultSeparator = "_"
	// DefaultImageField is the position of the image identifier.
	DefaultImageField = 0
	// DefaultDeviceField is the position of the device type.
	DefaultDeviceField = 1
	// DefaultVersionField is the position of the version.
	DefaultVersionField = 2
)

// Layout describes how an artifact filename stem decomposes into ordered fields.
// It is built once at startup and only read afterwards.
type Layout struct {
	// Separator splits the stem into fields.
	Separator string
	// ImageField is the index of the image identifier.
	ImageField int
	// DeviceField is the index of the device type.
	DeviceField int
	// VersionField is the index of the version.
	VersionField int
}

// DefaultLayout returns the `<image>_<device>_<version>.<ext>` layout.
func DefaultLayout() Layout {
	return Layout{
		Separator:    DefaultSeparator,
		ImageField:   DefaultImageField,
		DeviceField:  DefaultDeviceField,
		VersionField: DefaultVersionField,
	}
}

// Validate checks that the layout can split a filename.
func (l Layout) Validate() error {
	if l.Separator == "" {
		return fmt.Errorf("%w: separator must not be empty", ErrInvalidLayout)
	}

	fields := []struct {
		name  string
		index int
	}{
		{"image", l.ImageField},
		{"device", l.DeviceField},
		{"version", l.VersionField},
	}

	for _, field := range fields {
		if field.index < 0 {
			return fmt.Errorf("%w: %s field index %d is negative", ErrInvalidLayout, field.name, field.index)
		}
	}

	return nil
}

// maxField returns the highest field index the layout reads.
func (l Layout) maxField() int {
	return max(l.ImageField, l.DeviceField, l.VersionField)
}

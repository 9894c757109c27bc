package photometa

// Severity ranks how much a disclosed tag reveals about the photographer.
type Severity int

const (
	// SeverityInfo tags reveal nothing personal.
	SeverityInfo Severity = iota
	// SeverityLow tags help correlate photos, e.g. timestamps and software.
	SeverityLow
	// SeverityMedium tags identify equipment, e.g. camera model or host computer.
	SeverityMedium
	// SeverityHigh tags identify a device or a person, e.g. serial numbers and authors.
	SeverityHigh
	// SeverityCritical tags reveal where the photo was taken.
	SeverityCritical
)

// String returns the upper-case name of s.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Disclosure is one revealing tag found in a photo.
type Disclosure struct {
	Kind     string
	Tag      string
	Value    string
	Severity Severity
}

// disclosureKinds maps EXIF tag names to the kind and severity of what they reveal.
var disclosureKinds = map[string]struct {
	kind     string
	severity Severity
}{
	"GPSLatitude":        {"gps", SeverityCritical},
	"GPSLongitude":       {"gps", SeverityCritical},
	"SerialNumber":       {"serial", SeverityHigh},
	"CameraSerialNumber": {"serial", SeverityHigh},
	"BodySerialNumber":   {"serial", SeverityHigh},
	"LensSerialNumber":   {"serial", SeverityHigh},
	"Artist":             {"author", SeverityHigh},
	"XPAuthor":           {"author", SeverityHigh},
	"Copyright":          {"author", SeverityHigh},
	"CameraOwnerName":    {"author", SeverityHigh},
	"HostComputer":       {"computer", SeverityMedium},
	"Make":               {"camera", SeverityMedium},
	"Model":              {"camera", SeverityMedium},
	"Software":           {"software", SeverityLow},
	"ProcessingSoftware": {"software", SeverityLow},
	"DateTimeOriginal":   {"datetime", SeverityLow},
	"DateTimeDigitized":  {"datetime", SeverityLow},
	"DateTime":           {"datetime", SeverityLow},
}

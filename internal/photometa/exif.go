package photometa

import (
	"errors"
	"fmt"
	"strings"
	"time"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// ErrNoExif is returned for images without an EXIF block.
var ErrNoExif = errors.New("image has no exif data")

// exifTimeLayout is the EXIF DateTime format.
const exifTimeLayout = "2006:01:02 15:04:05"

// Summary is what a photo's EXIF block says about it.
type Summary struct {
	Make     string
	Model    string
	Software string
	Artist   string
	// Taken is DateTimeOriginal, falling back to DateTime. Zero when absent.
	Taken time.Time

	HasGPS    bool
	Latitude  float64
	Longitude float64

	Disclosures []Disclosure
}

// Camera returns "Make Model" without repeating a make the model already names.
func (s Summary) Camera() string {
	if s.Make == "" {
		return s.Model
	}
	if s.Model == "" {
		return s.Make
	}
	if strings.HasPrefix(strings.ToLower(s.Model), strings.ToLower(s.Make)) {
		return s.Model
	}
	return s.Make + " " + s.Model
}

// MaxSeverity returns the highest severity of the disclosures, or SeverityInfo.
func (s Summary) MaxSeverity() Severity {
	highest := SeverityInfo
	for _, d := range s.Disclosures {
		highest = max(highest, d.Severity)
	}
	return highest
}

// Extract parses the EXIF block of image data.
func Extract(data []byte) (Summary, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return Summary{}, ErrNoExif
		}
		return Summary{}, fmt.Errorf("failed to locate exif data: %w", err)
	}
	if len(rawExif) == 0 {
		return Summary{}, ErrNoExif
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to parse exif data: %w", err)
	}

	var (
		s                          Summary
		latRef, lonRef             string
		lat, lon                   []exifcommon.Rational
		dateTime, dateTimeOriginal string
	)
	for _, entry := range entries {
		value := strings.TrimSpace(entry.Formatted)
		switch entry.TagName {
		case "Make":
			s.Make = value
		case "Model":
			s.Model = value
		case "Software":
			s.Software = value
		case "Artist":
			s.Artist = value
		case "DateTime":
			dateTime = value
		case "DateTimeOriginal":
			dateTimeOriginal = value
		case "GPSLatitudeRef":
			latRef = value
		case "GPSLongitudeRef":
			lonRef = value
		case "GPSLatitude":
			lat, _ = entry.Value.([]exifcommon.Rational)
		case "GPSLongitude":
			lon, _ = entry.Value.([]exifcommon.Rational)
		}

		if k, ok := disclosureKinds[entry.TagName]; ok && value != "" {
			s.Disclosures = append(s.Disclosures, Disclosure{
				Kind:     k.kind,
				Tag:      entry.TagName,
				Value:    value,
				Severity: k.severity,
			})
		}
	}

	for _, v := range []string{dateTimeOriginal, dateTime} {
		if t, err := time.Parse(exifTimeLayout, v); err == nil {
			s.Taken = t
			break
		}
	}

	if latitude, ok := degrees(lat, latRef, "S"); ok {
		s.HasGPS = true
		s.Latitude = latitude
	}
	if longitude, ok := degrees(lon, lonRef, "W"); ok {
		s.HasGPS = true
		s.Longitude = longitude
	}
	return s, nil
}

// degrees converts degrees, minutes and seconds to decimal degrees,
// negative when ref equals negativeRef.
func degrees(dms []exifcommon.Rational, ref, negativeRef string) (float64, bool) {
	if len(dms) != 3 {
		return 0, false
	}
	var parts [3]float64
	for i, r := range dms {
		if r.Denominator == 0 {
			return 0, false
		}
		parts[i] = float64(r.Numerator) / float64(r.Denominator)
	}
	d := parts[0] + parts[1]/60 + parts[2]/3600
	if strings.EqualFold(ref, negativeRef) {
		d = -d
	}
	return d, true
}

package evidence

import (
	"bytes"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/narasim-teja/tars/types"
)

// extractMetadata pulls capture metadata from the embedded EXIF block of
// the original bytes. Fields resolve in a deterministic priority order:
// DateTimeOriginal before DateTime, and the explicit GPS tag pair before
// any alias fields. Missing EXIF is not an error; the timestamp falls
// back to the time of normalization.
func extractMetadata(raw []byte) types.CaptureMetadata {
	meta := types.CaptureMetadata{Timestamp: time.Now().UTC()}
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return meta
	}

	if ts, ok := exifTime(x, exif.DateTimeOriginal); ok {
		meta.Timestamp = ts
	} else if ts, ok := exifTime(x, exif.DateTime); ok {
		meta.Timestamp = ts
	}

	meta.DeviceMake = exifString(x, exif.Make)
	meta.DeviceModel = exifString(x, exif.Model)
	meta.FNumber = exifString(x, exif.FNumber)
	meta.Exposure = exifString(x, exif.ExposureTime)
	meta.ISO = exifString(x, exif.ISOSpeedRatings)

	if lat, lng, err := x.LatLong(); err == nil {
		meta.Location = &types.GeoPoint{Latitude: lat, Longitude: lng}
	}
	return meta
}

func exifString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return strings.Trim(tag.String(), "\"")
	}
	return strings.TrimSpace(s)
}

func exifTime(x *exif.Exif, name exif.FieldName) (time.Time, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return time.Time{}, false
	}
	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}
	ts, err := time.Parse("2006:01:02 15:04:05", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

package publish

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/narasim-teja/tars/types"
)

// The proposal description is a label-stable, line-oriented document. A
// section whose underlying data is absent is omitted entirely, never
// emitted with a filler value; the decoder treats a missing label as "no
// data" and never treats the literal "N/A" as data.

const docHeader = "Impact Initiative Proposal"

var ErrBadDocument = errors.New("malformed proposal document")

// Description is the parsed form of a proposal description document.
type Description struct {
	Location    *types.LocationInfo
	Coordinates *types.GeoPoint
	ImpactScore int
	Urgency     types.Urgency
	Category    string
	ImageCID    string
	Summary     string
	Weather     *types.WeatherInfo
	Actions     []string
	AnalysisURL string
	Confidence  int
}

// EncodeDescription renders the description document for one assessed
// piece of evidence.
func EncodeDescription(d *Description) string {
	var b strings.Builder
	b.WriteString(docHeader + "\n\n")

	if d.Location != nil {
		parts := make([]string, 0, 3)
		for _, p := range []string{d.Location.City, d.Location.State, d.Location.Country} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			b.WriteString("Location: " + strings.Join(parts, ", ") + "\n")
		}
	}
	if d.Coordinates != nil {
		b.WriteString(fmt.Sprintf("Coordinates: %.6f, %.6f\n", d.Coordinates.Latitude, d.Coordinates.Longitude))
	}
	b.WriteString(fmt.Sprintf("Impact Score: %d\n", d.ImpactScore))
	b.WriteString("Urgency: " + string(d.Urgency) + "\n")
	b.WriteString("Category: " + d.Category + "\n")
	if d.ImageCID != "" {
		b.WriteString("Verification Status: Verified via IPFS (CID: " + d.ImageCID + ")\n")
	}

	if d.Summary != "" {
		b.WriteString("\nDescription:\n" + d.Summary + "\n")
	}

	if d.Weather != nil {
		b.WriteString("\nCurrent Conditions:\n")
		b.WriteString(fmt.Sprintf("- Weather: %s (%.1f°C)\n", d.Weather.Conditions, d.Weather.TemperatureC))
	}

	if len(d.Actions) > 0 {
		b.WriteString("\nRecommended Actions:\n")
		for _, a := range d.Actions {
			b.WriteString("- " + a + "\n")
		}
	}

	if d.AnalysisURL != "" {
		b.WriteString("\nEvidence:\n")
		b.WriteString("- Full Analysis: " + d.AnalysisURL + "\n")
		b.WriteString(fmt.Sprintf("- Confidence Score: %d%%\n", d.Confidence))
	}

	return b.String()
}

// DecodeDescription parses a description document back into its fields.
// Absent sections decode to zero values, not filler strings.
func DecodeDescription(text string) (*Description, error) {
	sc := bufio.NewScanner(strings.NewReader(text))
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != docHeader {
		return nil, ErrBadDocument
	}
	d := &Description{}
	section := ""
	var summary []string

	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			section = ""
			continue
		}
		switch {
		case trimmed == "Description:":
			section = "description"
		case trimmed == "Current Conditions:":
			section = "conditions"
		case trimmed == "Recommended Actions:":
			section = "actions"
		case trimmed == "Evidence:":
			section = "evidence"
		case section == "description":
			summary = append(summary, line)
		case section == "conditions":
			if v, ok := labelValue(trimmed, "- Weather"); ok {
				w, err := parseWeather(v)
				if err != nil {
					return nil, err
				}
				d.Weather = w
			}
		case section == "actions":
			if strings.HasPrefix(trimmed, "- ") {
				d.Actions = append(d.Actions, strings.TrimPrefix(trimmed, "- "))
			}
		case section == "evidence":
			if v, ok := labelValue(trimmed, "- Full Analysis"); ok {
				d.AnalysisURL = v
			} else if v, ok := labelValue(trimmed, "- Confidence Score"); ok {
				n, err := strconv.Atoi(strings.TrimSuffix(v, "%"))
				if err != nil {
					return nil, fmt.Errorf("%w: confidence %q", ErrBadDocument, v)
				}
				d.Confidence = n
			}
		default:
			if err := parseHeaderLine(d, trimmed); err != nil {
				return nil, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	d.Summary = strings.TrimSpace(strings.Join(summary, "\n"))
	return d, nil
}

func parseHeaderLine(d *Description, line string) error {
	if v, ok := labelValue(line, "Location"); ok {
		d.Location = parseLocation(v)
		return nil
	}
	if v, ok := labelValue(line, "Coordinates"); ok {
		parts := strings.SplitN(v, ",", 2)
		if len(parts) != 2 {
			return fmt.Errorf("%w: coordinates %q", ErrBadDocument, v)
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("%w: coordinates %q", ErrBadDocument, v)
		}
		d.Coordinates = &types.GeoPoint{Latitude: lat, Longitude: lng}
		return nil
	}
	if v, ok := labelValue(line, "Impact Score"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: impact score %q", ErrBadDocument, v)
		}
		d.ImpactScore = n
		return nil
	}
	if v, ok := labelValue(line, "Urgency"); ok {
		d.Urgency = types.Urgency(v)
		return nil
	}
	if v, ok := labelValue(line, "Category"); ok {
		d.Category = v
		return nil
	}
	if v, ok := labelValue(line, "Verification Status"); ok {
		if i := strings.Index(v, "(CID: "); i >= 0 {
			d.ImageCID = strings.TrimSuffix(v[i+len("(CID: "):], ")")
		}
		return nil
	}
	// unknown labels are tolerated for forward compatibility
	return nil
}

func labelValue(line, label string) (string, bool) {
	prefix := label + ": "
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	v := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	// filler emitted by older encoders, not data
	if v == "N/A" {
		return "", false
	}
	return v, true
}

// parseLocation splits "city, state, country"; with fewer parts the state
// is the field assumed absent.
func parseLocation(v string) *types.LocationInfo {
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	loc := &types.LocationInfo{}
	switch len(parts) {
	case 1:
		loc.City = parts[0]
	case 2:
		loc.City, loc.Country = parts[0], parts[1]
	default:
		loc.City, loc.State, loc.Country = parts[0], parts[1], parts[2]
	}
	return loc
}

func parseWeather(v string) (*types.WeatherInfo, error) {
	open := strings.LastIndex(v, "(")
	end := strings.LastIndex(v, "°C)")
	if open < 0 || end < open {
		return nil, fmt.Errorf("%w: weather %q", ErrBadDocument, v)
	}
	temp, err := strconv.ParseFloat(v[open+1:end], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: weather %q", ErrBadDocument, v)
	}
	return &types.WeatherInfo{
		Conditions:   strings.TrimSpace(v[:open]),
		TemperatureC: temp,
	}, nil
}

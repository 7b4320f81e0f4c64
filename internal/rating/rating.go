package rating

import "fmt"

// Rating categorizes how suitable a day was for spending time outside.
type Rating string

const (
	Good    Rating = "good"
	Okay    Rating = "okay"
	Bad     Rating = "bad"
	Unrated Rating = "unrated" // missing instrument data, not an error
)

// Rated reports whether r carries an actual classification.
func (r Rating) Rated() bool {
	return r == Good || r == Okay || r == Bad
}

// CToF converts Celsius to Fahrenheit. The comfort bands below are colloquial
// Fahrenheit values, so conversion happens once here at the classifier
// boundary rather than per comparison.
func CToF(c float64) float64 {
	return c*9/5 + 32
}

// Classify rates a single day from its max temperature, mean apparent
// temperature and WMO weather code. Any field may be nil. The function is
// pure and total: it always returns exactly one of the four ratings.
//
// Precedence: missing max temperature wins over everything; an extreme
// apparent temperature overrides the max-temperature bands; the weather code
// is a penalty on top of the band rating, never a promoter.
func Classify(maxTempC, apparentTempC *float64, weatherCode *int) Rating {
	if maxTempC == nil {
		return Unrated
	}

	if apparentTempC != nil {
		feels := CToF(*apparentTempC)
		if feels < 40 || feels > 85 {
			return Bad
		}
	}

	maxF := CToF(*maxTempC)
	if maxF > 87 || maxF < 50 {
		return Bad
	}

	var base Rating
	switch {
	case maxF >= 57 && maxF <= 82:
		base = Good
	case maxF >= 50 && maxF < 57, maxF > 82 && maxF <= 85:
		base = Okay
	default:
		// Only (85, 87] reaches here after the hard bounds above.
		base = Bad
	}

	if weatherCode == nil || base == Bad {
		return base
	}

	switch code := *weatherCode; {
	case code > 63:
		return Bad
	case code == 56 || code == 57: // freezing drizzle
		return Bad
	case code == 61 || code == 63: // slight/moderate rain: downgrade one level
		if base == Good {
			return Okay
		}
		return Bad
	}

	return base
}

// codeDescriptions maps WMO weather codes to display text.
var codeDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// CodeDescription returns a human-readable description for a WMO weather
// code. Unknown codes are tolerated and rendered generically.
func CodeDescription(code int) string {
	if desc, ok := codeDescriptions[code]; ok {
		return desc
	}
	return fmt.Sprintf("Weather code %d", code)
}

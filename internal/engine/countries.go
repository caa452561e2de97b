package engine

import "strings"

// CountryEU is the rule-side token matching any EU member state.
const CountryEU = "EU"

// euMembers is the fixed EU-27 membership set (post-Brexit).
var euMembers = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

// IsEUMember reports whether code is one of the 27 EU member states.
func IsEUMember(code string) bool {
	_, ok := euMembers[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// countryNames maps ISO-3166 alpha-2 codes to display names for
// synthesized fee labels. Covers the EU plus common trade lanes;
// unknown codes fall through to the code itself.
var countryNames = map[string]string{
	"AT": "Austria", "BE": "Belgium", "BG": "Bulgaria", "HR": "Croatia",
	"CY": "Cyprus", "CZ": "Czechia", "DK": "Denmark", "EE": "Estonia",
	"FI": "Finland", "FR": "France", "DE": "Germany", "GR": "Greece",
	"HU": "Hungary", "IE": "Ireland", "IT": "Italy", "LV": "Latvia",
	"LT": "Lithuania", "LU": "Luxembourg", "MT": "Malta", "NL": "Netherlands",
	"PL": "Poland", "PT": "Portugal", "RO": "Romania", "SK": "Slovakia",
	"SI": "Slovenia", "ES": "Spain", "SE": "Sweden",

	"US": "United States", "GB": "United Kingdom", "CN": "China",
	"JP": "Japan", "CA": "Canada", "AU": "Australia", "NZ": "New Zealand",
	"CH": "Switzerland", "NO": "Norway", "IS": "Iceland", "KR": "South Korea",
	"IN": "India", "BR": "Brazil", "MX": "Mexico", "TR": "Turkey",
	"UA": "Ukraine", "RS": "Serbia", "SG": "Singapore", "HK": "Hong Kong",
	"TW": "Taiwan", "VN": "Vietnam", "TH": "Thailand", "ID": "Indonesia",
	"MY": "Malaysia", "PH": "Philippines", "ZA": "South Africa",
	"AE": "United Arab Emirates", "SA": "Saudi Arabia", "IL": "Israel",
	"AR": "Argentina", "CL": "Chile", "CO": "Colombia", "EU": "EU",
}

// CountryName returns a display name for a country code, or the code
// itself when unknown.
func CountryName(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if name, ok := countryNames[code]; ok {
		return name
	}
	return code
}

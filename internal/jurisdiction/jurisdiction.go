// Package jurisdiction holds the canonical table of US states and the District of
// Columbia: two-letter codes, full names, and a dictionary of common misspellings
// and abbreviations seen in accounting exports.
package jurisdiction

import (
	"regexp"
	"strings"
)

// Jurisdiction is one canonical entry.
type Jurisdiction struct {
	Code string
	Name string
}

// All lists the 51 canonical jurisdictions in code order.
var All = []Jurisdiction{
	{"AK", "Alaska"}, {"AL", "Alabama"}, {"AR", "Arkansas"}, {"AZ", "Arizona"},
	{"CA", "California"}, {"CO", "Colorado"}, {"CT", "Connecticut"}, {"DC", "District of Columbia"},
	{"DE", "Delaware"}, {"FL", "Florida"}, {"GA", "Georgia"}, {"HI", "Hawaii"},
	{"IA", "Iowa"}, {"ID", "Idaho"}, {"IL", "Illinois"}, {"IN", "Indiana"},
	{"KS", "Kansas"}, {"KY", "Kentucky"}, {"LA", "Louisiana"}, {"MA", "Massachusetts"},
	{"MD", "Maryland"}, {"ME", "Maine"}, {"MI", "Michigan"}, {"MN", "Minnesota"},
	{"MO", "Missouri"}, {"MS", "Mississippi"}, {"MT", "Montana"}, {"NC", "North Carolina"},
	{"ND", "North Dakota"}, {"NE", "Nebraska"}, {"NH", "New Hampshire"}, {"NJ", "New Jersey"},
	{"NM", "New Mexico"}, {"NV", "Nevada"}, {"NY", "New York"}, {"OH", "Ohio"},
	{"OK", "Oklahoma"}, {"OR", "Oregon"}, {"PA", "Pennsylvania"}, {"RI", "Rhode Island"},
	{"SC", "South Carolina"}, {"SD", "South Dakota"}, {"TN", "Tennessee"}, {"TX", "Texas"},
	{"UT", "Utah"}, {"VA", "Virginia"}, {"VT", "Vermont"}, {"WA", "Washington"},
	{"WI", "Wisconsin"}, {"WV", "West Virginia"}, {"WY", "Wyoming"},
}

// variations maps lower-cased misspellings and informal abbreviations to codes.
// Keys are stored after Key() normalization.
var variations = map[string]string{
	"ala": "AL", "alabamma": "AL",
	"alaksa": "AK", "alas": "AK",
	"ariz": "AZ", "arizonia": "AZ",
	"ark": "AR", "arkansaw": "AR",
	"calif": "CA", "cali": "CA", "cal": "CA", "califonia": "CA", "californa": "CA",
	"colo": "CO", "col": "CO",
	"conn": "CT", "conneticut": "CT", "connecticutt": "CT",
	"dc": "DC", "d c": "DC", "washington dc": "DC", "washington d c": "DC", "dist of columbia": "DC", "dist columbia": "DC",
	"del": "DE",
	"fla": "FL", "flordia": "FL", "florida state": "FL",
	"ga state": "GA", "georgia state": "GA",
	"hawai": "HI", "hawii": "HI",
	"ida": "ID",
	"ill": "IL", "ills": "IL", "illinios": "IL", "illinoise": "IL",
	"ind": "IN",
	"kan": "KS", "kans": "KS",
	"ken": "KY", "kent": "KY", "kentucy": "KY",
	"louisianna": "LA",
	"mass": "MA", "massachusets": "MA", "massachussetts": "MA", "massachusettes": "MA",
	"md state": "MD",
	"mich": "MI", "michagan": "MI",
	"minn": "MN", "minnesotta": "MN",
	"miss": "MS", "missisippi": "MS", "mississipi": "MS",
	"mo state": "MO", "missourri": "MO",
	"mont": "MT",
	"neb": "NE", "nebr": "NE",
	"nev": "NV",
	"n h": "NH", "new hamshire": "NH",
	"n j": "NJ", "new jersy": "NJ",
	"n m": "NM", "n mex": "NM", "new mex": "NM",
	"n y": "NY", "ny state": "NY", "new york state": "NY", "nys": "NY", "newyork": "NY",
	"n c": "NC", "n carolina": "NC", "no carolina": "NC",
	"n d": "ND", "n dakota": "ND", "no dakota": "ND",
	"okla": "OK",
	"ore": "OR", "oreg": "OR",
	"penn": "PA", "penna": "PA", "pensylvania": "PA", "pennsylvannia": "PA",
	"r i": "RI",
	"s c": "SC", "s carolina": "SC", "so carolina": "SC",
	"s d": "SD", "s dakota": "SD", "so dakota": "SD",
	"tenn": "TN", "tennesee": "TN", "tennesse": "TN",
	"tex": "TX", "texs": "TX",
	"vt state": "VT",
	"virg": "VA", "virgina": "VA",
	"wash": "WA", "washington state": "WA", "wa state": "WA",
	"wis": "WI", "wisc": "WI", "wisconson": "WI",
	"w va": "WV", "w virginia": "WV",
	"wyo": "WY",
}

var (
	byCode = func() map[string]Jurisdiction {
		m := make(map[string]Jurisdiction, len(All))
		for _, j := range All {
			m[j.Code] = j
		}
		return m
	}()

	byName = func() map[string]string {
		m := make(map[string]string, len(All))
		for _, j := range All {
			m[Key(j.Name)] = j.Code
		}
		return m
	}()

	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
)

// Key lower-cases s and collapses punctuation and whitespace runs into single spaces,
// so "N.Y." and "n y" compare equal.
func Key(s string) string {
	return strings.TrimSpace(nonAlnum.ReplaceAllString(strings.ToLower(s), " "))
}

// ByCode returns the jurisdiction for a two-letter code, case-insensitive.
func ByCode(code string) (Jurisdiction, bool) {
	j, ok := byCode[strings.ToUpper(strings.TrimSpace(code))]
	return j, ok
}

// IsCode reports whether s is a canonical code in any case.
func IsCode(s string) bool {
	_, ok := ByCode(s)
	return ok
}

// CodeForName resolves a full name, case-insensitive.
func CodeForName(name string) (string, bool) {
	code, ok := byName[Key(name)]
	return code, ok
}

// CodeForVariation resolves a known misspelling or informal abbreviation.
func CodeForVariation(s string) (string, bool) {
	k := Key(s)
	if code, ok := variations[k]; ok {
		return code, true
	}
	// "N.Y." collapses to "n y"; also try the joined form "ny" style keys.
	code, ok := variations[strings.ReplaceAll(k, " ", "")]
	return code, ok
}

// IsStateToken reports whether s is a canonical code or full name in any case.
func IsStateToken(s string) bool {
	if IsCode(s) {
		return true
	}
	_, ok := CodeForName(s)
	return ok
}

// Names returns the 51 full names in code order.
func Names() []string {
	names := make([]string, len(All))
	for i, j := range All {
		names[i] = j.Name
	}
	return names
}

// Variations returns a copy of the variation dictionary.
func Variations() map[string]string {
	out := make(map[string]string, len(variations))
	for k, v := range variations {
		out[k] = v
	}
	return out
}

// Codes returns the canonical codes in table order.
func Codes() []string {
	codes := make([]string, len(All))
	for i, j := range All {
		codes[i] = j.Code
	}
	return codes
}

package geocode

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// iso3166 lists ISO 3166-1 alpha-2 codes.
const iso3166 = `AD AE AF AG AI AL AM AO AQ AR AS AT AU AW AX AZ BA BB BD BE BF BG BH BI BJ BL
BM BN BO BQ BR BS BT BV BW BY BZ CA CC CD CF CG CH CI CK CL CM CN CO CR CU CV CW CX CY CZ DE
DJ DK DM DO DZ EC EE EG EH ER ES ET FI FJ FK FM FO FR GA GB GD GE GF GG GH GI GL GM GN GP GQ
GR GS GT GU GW GY HK HM HN HR HT HU ID IE IL IM IN IO IQ IR IS IT JE JM JO JP KE KG KH KI KM
KN KP KR KW KY KZ LA LB LC LI LK LR LS LT LU LV LY MA MC MD ME MF MG MH MK ML MM MN MO MP MQ
MR MS MT MU MV MW MX MY MZ NA NC NE NF NG NI NL NO NP NR NU NZ OM PA PE PF PG PH PK PL PM PN
PR PS PT PW PY QA RE RO RS RU RW SA SB SC SD SE SG SH SI SJ SK SL SM SN SO SR SS ST SV SX SY
SZ TC TD TF TG TH TJ TK TL TM TN TO TR TT TV TW TZ UA UG UM US UY UZ VA VC VE VG VI VN VU WF
WS YE YT ZA ZM ZW`

// countryAliases are official and common long forms the display table lacks.
var countryAliases = []string{
	"United States of America",
	"United Kingdom of Great Britain and Northern Ireland",
	"Great Britain",
	"Russian Federation",
	"Republic of Korea",
	"Korea, Republic of",
	"Democratic People's Republic of Korea",
	"Iran, Islamic Republic of",
	"Viet Nam",
	"Syrian Arab Republic",
	"Lao People's Democratic Republic",
	"Bolivia, Plurinational State of",
	"Venezuela, Bolivarian Republic of",
	"Tanzania, United Republic of",
	"Moldova, Republic of",
	"Czech Republic",
	"Holland",
	"Ivory Coast",
	"Cote d'Ivoire",
	"Burma",
	"Swaziland",
}

var countryIndex = buildCountryIndex()

func buildCountryIndex() map[string]struct{} {
	idx := make(map[string]struct{})
	add := func(s string) {
		if k := foldName(s); k != "" {
			idx[k] = struct{}{}
		}
	}

	namer := display.English.Regions()
	for _, code := range strings.Fields(iso3166) {
		add(code)
		region, err := language.ParseRegion(code)
		if err != nil {
			continue
		}
		add(region.ISO3())
		add(namer.Name(region))
	}
	for _, a := range countryAliases {
		add(a)
	}
	return idx
}

// IsCountry reports whether name, compared whole and case-insensitively,
// is an ISO 3166 country code or country name.
func IsCountry(name string) bool {
	k := foldName(name)
	if k == "" {
		return false
	}
	_, ok := countryIndex[k]
	return ok
}

func foldName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(s)
}

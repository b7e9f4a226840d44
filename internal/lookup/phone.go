package lookup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/ethos-finder/ethos/internal/provider"
	"github.com/ethos-finder/ethos/internal/validate"
)

var numberTypes = map[phonenumbers.PhoneNumberType]string{
	phonenumbers.FIXED_LINE:           "fixed_line",
	phonenumbers.MOBILE:               "mobile",
	phonenumbers.FIXED_LINE_OR_MOBILE: "fixed_line_or_mobile",
	phonenumbers.TOLL_FREE:            "toll_free",
	phonenumbers.PREMIUM_RATE:         "premium_rate",
	phonenumbers.SHARED_COST:          "shared_cost",
	phonenumbers.VOIP:                 "voip",
	phonenumbers.PERSONAL_NUMBER:      "personal_number",
	phonenumbers.PAGER:                "pager",
	phonenumbers.UAN:                  "uan",
	phonenumbers.VOICEMAIL:            "voicemail",
}

// countryName renders an ISO 3166 region code in English.
func countryName(code string) string {
	region, err := language.ParseRegion(code)
	if err != nil {
		return code
	}
	if name := display.English.Regions().Name(region); name != "" {
		return name
	}
	return code
}

// freePhone analyses the number locally. It returns the E.164 form when the
// number parsed.
func (d *Dispatcher) freePhone(number, region string, col *collector) (string, bool) {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = d.region
	}

	num, err := phonenumbers.Parse(validate.StripPhone(number), region)
	if err != nil {
		col.fail(provider.NamePhoneNumbers, provider.NewError(provider.NamePhoneNumbers, provider.InvalidInput, fmt.Errorf("parse %q: %w", number, err)))
		return "", false
	}

	const p = provider.NamePhoneNumbers
	e164 := phonenumbers.Format(num, phonenumbers.E164)
	col.add(p, "e164", e164)

	if code := phonenumbers.GetRegionCodeForNumber(num); code != "" {
		col.add(p, "country", countryName(code))
		col.add(p, "region", code)
	}
	if loc, err := phonenumbers.GetGeocodingForNumber(num, "en"); err == nil && loc != "" {
		col.add(p, "location", loc)
	}
	carrier := "unknown"
	if c, err := phonenumbers.GetCarrierForNumber(num, "en"); err == nil && c != "" {
		carrier = c
	}
	col.add(p, "carrier", carrier)

	kind, ok := numberTypes[phonenumbers.GetNumberType(num)]
	if !ok {
		kind = "unknown"
	}
	col.add(p, "type", kind)
	col.add(p, "valid", strconv.FormatBool(phonenumbers.IsValidNumber(num)))

	if zones, err := phonenumbers.GetTimezonesForNumber(num); err == nil {
		for _, tz := range zones {
			col.add(p, "timezone", tz)
		}
	}

	// click-to-chat link; it does not confirm an account exists
	col.add(p, "whatsapp", "https://wa.me/"+strings.TrimPrefix(e164, "+"))
	return e164, true
}

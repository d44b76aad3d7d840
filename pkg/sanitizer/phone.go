package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegions are tried in order for numbers written without a country
// calling code.
var DefaultRegions = []string{"US", "GB", "IL"}

// NormalizePhone returns phone in E.164 form, or "" when no region yields a
// valid number.
func NormalizePhone(phone string, regions ...string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	if len(regions) == 0 {
		regions = DefaultRegions
	}

	if strings.HasPrefix(phone, "+") {
		regions = []string{"ZZ"}
	}

	for _, region := range regions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			continue
		}
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}
	return ""
}

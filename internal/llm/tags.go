package llm

import "regexp"

var (
	reVendor      = regexp.MustCompile(`(?s)<vendor>(.*?)</vendor>`)
	reDate        = regexp.MustCompile(`(?s)<date>(.*?)</date>`)
	reAmount      = regexp.MustCompile(`(?s)<amount>(.*?)</amount>`)
	reCategory    = regexp.MustCompile(`(?s)<category>(.*?)</category>`)
	reDescription = regexp.MustCompile(`(?s)<description>(.*?)</description>`)
)

// ParseTaggedResponse locates each tag pair in the model output. A missing
// tag yields an empty string, never an error; downstream defaulting handles
// the gaps.
func ParseTaggedResponse(response string) ReceiptFields {
	return ReceiptFields{
		Vendor:      firstGroup(reVendor, response),
		Date:        firstGroup(reDate, response),
		Amount:      firstGroup(reAmount, response),
		Category:    firstGroup(reCategory, response),
		Description: firstGroup(reDescription, response),
	}
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

package extract

import "regexp"

var fiveDigitPattern = regexp.MustCompile(`\b\d{5}\b`)

// watermarkMinOccurrences is how many times a 5-digit token must repeat
// before it is considered a watermark rather than a legitimate number.
const watermarkMinOccurrences = 3

// RemoveWatermark strips the most frequent repeating 5-digit token from the
// text. Document mills stamp every page with the same short numeric sequence;
// left in place it pollutes the analysis input.
func RemoveWatermark(text string) string {
	matches := fiveDigitPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return text
	}

	counts := make(map[string]int, len(matches))
	for _, m := range matches {
		counts[m]++
	}

	// First-seen token wins ties, so the result is deterministic.
	var watermark string
	var occurrences int
	for _, m := range matches {
		if counts[m] > occurrences {
			watermark = m
			occurrences = counts[m]
		}
	}

	if occurrences < watermarkMinOccurrences {
		return text
	}

	pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(watermark) + `\b\s*`)
	return pattern.ReplaceAllString(text, "")
}

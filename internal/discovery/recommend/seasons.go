package recommend

import "time"

// Season groups calendar months into the four retail seasons.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
)

// SeasonOf maps a month to its season: Dec-Feb winter, Mar-May spring,
// Jun-Aug summer, Sep-Nov fall.
func SeasonOf(month time.Month) Season {
	switch month {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonFall
	}
}

// SeasonMap is the configuration table mapping each season to the product
// category tags the seasonal bucket draws from.
type SeasonMap map[Season][]string

// DefaultSeasonMap returns the stock season-to-categories table.
func DefaultSeasonMap() SeasonMap {
	return SeasonMap{
		SeasonWinter: {"candles", "baked-goods", "knitwear", "preserves"},
		SeasonSpring: {"plants", "garden", "fresh-produce", "flowers"},
		SeasonSummer: {"beverages", "fresh-produce", "outdoor", "crafts"},
		SeasonFall:   {"baked-goods", "preserves", "decor", "knitwear"},
	}
}

// Categories returns the category tags for the season containing month.
func (m SeasonMap) Categories(month time.Month) []string {
	return m[SeasonOf(month)]
}

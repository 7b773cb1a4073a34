package roundservice

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// TeeTimeParser parses free-text tee times ("tomorrow 8am", "saturday 7:30")
// against the club timezone.
type TeeTimeParser struct {
	parser   *when.Parser
	location *time.Location
}

// NewTeeTimeParser creates a parser resolving relative input in the given
// location.
func NewTeeTimeParser(location *time.Location) *TeeTimeParser {
	if location == nil {
		location = time.UTC
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &TeeTimeParser{parser: w, location: location}
}

// Parse resolves input relative to now. Empty input defaults to now; input
// that parses to nothing is a validation failure naming the field.
func (p *TeeTimeParser) Parse(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return now, nil
	}

	base := now.In(p.location)
	result, err := p.parser.Parse(input, base)
	if err != nil {
		return time.Time{}, NewValidationError("tee time %q could not be parsed", input)
	}
	if result == nil {
		return time.Time{}, NewValidationError("tee time %q could not be parsed", input)
	}
	return result.Time.UTC(), nil
}

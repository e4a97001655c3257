package macro

import (
	"fmt"
	"strconv"
	"strings"
)

// Sort is the order of the accordion panels.
type Sort string

const (
	// SortChrono lists the most recently modified documents first.
	SortChrono Sort = "CHRONO"
	// SortAlpha lists documents by ascending title.
	SortAlpha Sort = "ALPHA"
)

// DefaultLimit is the number of panels displayed when no limit is given.
const DefaultLimit = 100

// Parameters are the values bound from a macro invocation.
type Parameters struct {
	Space              string `json:"space,omitempty"`
	XClass             string `json:"xclass,omitempty"`
	Sort               Sort   `json:"sort"`
	DisplayAuthor      bool   `json:"displayAuthor"`
	DisplayDate        bool   `json:"displayDate"`
	Limit              int    `json:"limit"`
	AccordionMaxHeight int    `json:"accordionMaxHeight"`
	OpenFirstAccordion bool   `json:"openFirstAccordion"`
}

// DefaultParameters returns the values used for parameters left out of an invocation.
func DefaultParameters() Parameters {
	return Parameters{
		Sort:               SortChrono,
		DisplayAuthor:      true,
		DisplayDate:        true,
		Limit:              DefaultLimit,
		OpenFirstAccordion: true,
	}
}

// String is the snapshot included in execution failure messages.
func (p Parameters) String() string {
	return fmt.Sprintf("[space: %s, xclass: %s, sort: %s, limit: %d]", p.Space, p.XClass, p.Sort, p.Limit)
}

func (p Parameters) normalized() Parameters {
	if p.Limit < 1 {
		p.Limit = 1
	}
	if p.Sort != SortAlpha {
		p.Sort = SortChrono
	}
	if p.AccordionMaxHeight < 0 {
		p.AccordionMaxHeight = 0
	}
	return p
}

// ParseSort parses a sort name, ignoring case.
func ParseSort(s string) (Sort, bool) {
	switch Sort(strings.ToUpper(strings.TrimSpace(s))) {
	case SortChrono:
		return SortChrono, true
	case SortAlpha:
		return SortAlpha, true
	}
	return "", false
}

// ParseParameters binds raw invocation parameters. Names are matched ignoring
// case; unknown names, names given twice and malformed values are rejected.
func ParseParameters(raw map[string]string) (Parameters, error) {
	p := DefaultParameters()
	bound := make(map[string]string, len(raw))
	for name, value := range raw {
		key := strings.ToLower(name)
		if prev, ok := bound[key]; ok {
			return Parameters{}, wrongParameters(fmt.Sprintf("parameter %q given twice (%q and %q)", key, prev, name))
		}
		bound[key] = name

		value = strings.TrimSpace(value)
		var err error
		switch key {
		case "space":
			p.Space = value
		case "xclass":
			p.XClass = value
		case "sort":
			s, ok := ParseSort(value)
			if !ok {
				err = fmt.Errorf("expected %s or %s", SortChrono, SortAlpha)
			}
			p.Sort = s
		case "displayauthor":
			p.DisplayAuthor, err = parseBool(value)
		case "displaydate":
			p.DisplayDate, err = parseBool(value)
		case "openfirstaccordion":
			p.OpenFirstAccordion, err = parseBool(value)
		case "limit":
			p.Limit, err = strconv.Atoi(value)
		case "accordionmaxheight":
			p.AccordionMaxHeight, err = strconv.Atoi(value)
		default:
			return Parameters{}, wrongParameters(fmt.Sprintf("unknown parameter %q", name))
		}
		if err != nil {
			return Parameters{}, wrongParameters(fmt.Sprintf("invalid value %q for parameter %q: %v", value, name, err))
		}
	}
	return p, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "1", "on":
		return true, nil
	case "false", "no", "0", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean")
}

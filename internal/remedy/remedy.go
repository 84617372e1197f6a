// Package remedy turns the free-text treatment advice returned by the
// prediction service into ordered display sections.
package remedy

import "strings"

const (
	// blockSeparator splits a remedy into blocks.
	blockSeparator = "\n\n"
	// boldMarker wraps section titles, e.g. "**Immediate Treatment:**".
	boldMarker = "**"
)

// Section is one display block of a remedy. Titled is false for plain
// narrative text, in which case Title is empty and Body holds the block as-is.
type Section struct {
	Title  string `json:"title,omitempty"`
	Titled bool   `json:"titled"`
	Body   string `json:"body"`
	Icon   string `json:"icon,omitempty"`
}

// Format splits remedy into sections in display order. An empty remedy
// yields no sections.
func Format(remedy string) []Section {
	if remedy == "" {
		return nil
	}

	blocks := strings.Split(remedy, blockSeparator)
	sections := make([]Section, 0, len(blocks))
	for _, block := range blocks {
		sections = append(sections, parseBlock(block))
	}
	return sections
}

// Join rebuilds the remedy text from sections, re-wrapping titles in the
// bold marker. Join(Format(s)) == s for well-formed input.
func Join(sections []Section) string {
	blocks := make([]string, len(sections))
	for i, s := range sections {
		if !s.Titled {
			blocks[i] = s.Body
			continue
		}
		block := boldMarker + s.Title + boldMarker
		if s.Body != "" {
			block += "\n" + s.Body
		}
		blocks[i] = block
	}
	return strings.Join(blocks, blockSeparator)
}

func parseBlock(block string) Section {
	heading, body, _ := strings.Cut(block, "\n")
	if !isTitleLine(heading) {
		return Section{Body: block}
	}

	title := strings.ReplaceAll(heading, boldMarker, "")
	return Section{
		Title:  title,
		Titled: true,
		Body:   body,
		Icon:   Icon(title),
	}
}

// scan states for isTitleLine
const (
	expectOpen = iota
	inTitle
	closed
)

// isTitleLine reports whether line opens with the bold marker and closes it
// again later on the same line. "**Overview" (never closed) is plain text.
func isTitleLine(line string) bool {
	state := expectOpen
	for i := 0; i < len(line); {
		switch state {
		case expectOpen:
			if !strings.HasPrefix(line, boldMarker) {
				return false
			}
			state = inTitle
			i += len(boldMarker)
		case inTitle:
			if strings.HasPrefix(line[i:], boldMarker) {
				state = closed
				i += len(boldMarker)
				continue
			}
			i++
		case closed:
			return true
		}
	}
	return state == closed
}

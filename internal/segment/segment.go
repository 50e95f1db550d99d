// Package segment splits a free-form announcement body into titled sections.
//
// The source forum mixes numbered top-level announcements ("3. [新活動]")
// with unnumbered sub-notes ("[注意事項]") in one wall of text. Segmentation
// runs in two passes: a regex scan that opens a section at every bracketed
// heading, then a consolidation pass that folds minor sub-notes into the
// preceding major section so they do not surface as spurious standalone
// news items.
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gamewatch/gamewatch/internal/config"
	"github.com/gamewatch/gamewatch/internal/types"
)

// headingRe matches "3. [title]" and bare "[title]" headings. The first
// closing bracket terminates the title; nested brackets are not supported.
var headingRe = regexp.MustCompile(`(?:(\d+)\.\s*)?\[([^\]]+)\]`)

// Split segments an article body into consolidated sections in document
// order. Text before the first heading is not covered. Zero heading matches
// yield an empty slice; the caller decides whether to fall back to
// whole-document analysis.
func Split(content string, cfg config.Segment) []types.RawSection {
	if cfg.MinSectionLength <= 0 {
		cfg.MinSectionLength = config.Default().Segment.MinSectionLength
	}
	if cfg.MajorSectionLength <= 0 {
		cfg.MajorSectionLength = config.Default().Segment.MajorSectionLength
	}

	sections := scan(content)

	// Drop insignificant fragments (decorative separators, stray brackets).
	// Thresholds count characters, not bytes: CJK text runs three bytes
	// per rune and would otherwise clear the cutoffs far too easily.
	kept := sections[:0]
	for _, s := range sections {
		if utf8.RuneCountInString(s.Content) > cfg.MinSectionLength {
			kept = append(kept, s)
		}
	}

	return consolidate(kept, cfg.MajorSectionLength)
}

// scan performs the raw regex pass: each heading opens a section whose
// content runs to the next heading (or end of input).
func scan(content string) []types.RawSection {
	matches := headingRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	sections := make([]types.RawSection, 0, len(matches))
	for i, m := range matches {
		number := ""
		if m[2] >= 0 {
			number = content[m[2]:m[3]]
		}
		original := content[m[4]:m[5]]

		title := original
		if number != "" {
			title = number + ". " + original
		}

		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		sections = append(sections, types.RawSection{
			Number:        number,
			Title:         title,
			OriginalTitle: original,
			StartOffset:   m[0],
			Content:       strings.TrimSpace(content[m[1]:end]),
		})
	}
	return sections
}

// consolidate merges minor sections into the preceding major one. A section
// is major when it carries a number or its content exceeds majorLength. A
// minor section with no preceding major section stands on its own.
func consolidate(sections []types.RawSection, majorLength int) []types.RawSection {
	var (
		out     []types.RawSection
		current *types.RawSection
	)

	for _, s := range sections {
		if s.Number != "" || utf8.RuneCountInString(s.Content) > majorLength {
			if current != nil {
				out = append(out, *current)
			}
			sec := s
			current = &sec
			continue
		}
		if current != nil {
			current.Content += "\n\n" + s.OriginalTitle + "\n" + s.Content
			continue
		}
		out = append(out, s)
	}

	if current != nil {
		out = append(out, *current)
	}
	return out
}

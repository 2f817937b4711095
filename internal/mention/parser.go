// Package mention implements the `@`-mention scanner described in §4.3.
// It is a hand-written character scanner, not a regular expression, per the
// design note that calls for "explicit small parser; deterministic" in place
// of the regex-driven matching the system being re-expressed used.
package mention

import (
	"strings"
	"unicode"

	"github.com/PabloGalante/meeting-engine/internal/domain"
)

// Participant is the minimal shape the parser needs to resolve a mention;
// FromAgents builds it from domain.Agent values.
type Participant struct {
	ID       string
	Name     string
	RoleName string
}

// FromAgents adapts a meeting's participant snapshots to the parser's
// Participant shape.
func FromAgents(agents []domain.Agent) []Participant {
	out := make([]Participant, len(agents))
	for i, a := range agents {
		out[i] = Participant{ID: a.ID, Name: a.Name, RoleName: a.Role.Name}
	}
	return out
}

// Parse scans content for `@name` and `@"quoted name"` tokens and resolves
// each against participants, in document order. Each participant is
// reported at most once — the first occurrence wins. The user is never a
// mention target; only entries in participants can be matched.
func Parse(content, messageID string, participants []Participant) []domain.Mention {
	var mentions []domain.Mention
	seen := make(map[string]bool, len(participants))

	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '@' {
			continue
		}
		j := i + 1
		if j >= len(runes) {
			break
		}

		var candidate string
		var trimmedCandidate string

		if runes[j] == '"' {
			end := j + 1
			for end < len(runes) && runes[end] != '"' {
				end++
			}
			if end >= len(runes) {
				// unterminated quote: nothing to match, advance past '@'
				i = j
				continue
			}
			candidate = string(runes[j+1 : end])
			i = end // resume scanning after the closing quote
		} else {
			start := j
			end := start
			for end < len(runes) && !unicode.IsSpace(runes[end]) {
				end++
			}
			candidate = string(runes[start:end])
			trimmedCandidate = strings.TrimRightFunc(candidate, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
			})
			i = end - 1
		}

		if candidate == "" {
			continue
		}

		p, ok := resolve(candidate, participants)
		if !ok && trimmedCandidate != "" && trimmedCandidate != candidate {
			p, ok = resolve(trimmedCandidate, participants)
		}
		if !ok || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		mentions = append(mentions, domain.Mention{
			MentionedParticipantID:   p.ID,
			MentionedParticipantName: p.Name,
			MessageID:                messageID,
		})
	}

	return mentions
}

// resolve matches candidate against each participant's name first, then
// role name, both case-sensitive exact.
func resolve(candidate string, participants []Participant) (Participant, bool) {
	for _, p := range participants {
		if p.Name == candidate {
			return p, true
		}
	}
	for _, p := range participants {
		if p.RoleName == candidate {
			return p, true
		}
	}
	return Participant{}, false
}

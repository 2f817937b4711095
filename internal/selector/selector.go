// Package selector decides which participant(s) speak next (§4.7).
package selector

import (
	"math/rand"
	"sync"

	"github.com/PabloGalante/meeting-engine/internal/domain"
)

// Selector has no per-meeting cursor state: §4.7 step 2 defines the
// sequential rotation's start point as "just after the most recent AI
// speaker", so it is derived fresh from message history on every call
// instead of an incrementing counter like original_source's
// _speaker_indices map keeps. A counter advanced once per run_round call
// drifts from a stable per-round order the moment a call returns anything
// other than exactly one full rotation (a mention hop, a short-circuited
// round); deriving from history is self-correcting regardless of how the
// previous round actually played out.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New constructs a Selector.
func New() *Selector {
	return &Selector{
		rng: rand.New(rand.NewSource(1)),
	}
}

// Next implements §4.7's three-step selection logic.
//
//  1. If reference carries mentions resolving to participants, those
//     participants are returned in mention order, overriding rotation for
//     this hop.
//  2. Else, if runRound is requested, the full participant list is
//     returned — rotated to start just after the most recent AI speaker,
//     or a random permutation, per order.
//  3. Else, an empty slice (the turn engine will not auto-chain).
func (s *Selector) Next(meeting *domain.Meeting, reference *domain.Message, order domain.SpeakingOrder, runRound bool) []domain.Agent {
	if reference != nil {
		if mentioned := s.resolveMentions(meeting, reference); len(mentioned) > 0 {
			return mentioned
		}
	}

	if !runRound {
		return nil
	}

	if len(meeting.Participants) == 0 {
		return nil
	}

	if order == domain.SpeakingRandom {
		return s.randomOrder(meeting.Participants)
	}
	return sequentialOrder(meeting)
}

func (s *Selector) resolveMentions(meeting *domain.Meeting, reference *domain.Message) []domain.Agent {
	var out []domain.Agent
	for _, m := range reference.Mentions {
		if p, ok := meeting.ParticipantByID(m.MentionedParticipantID); ok {
			out = append(out, p)
		}
	}
	return out
}

// sequentialOrder rotates meeting.Participants to start just after whichever
// of them spoke most recently, per §4.7 step 2. With no agent speaker yet
// (meeting just started, or the rotation never having run before), it
// starts at index 0.
func sequentialOrder(meeting *domain.Meeting) []domain.Agent {
	participants := meeting.Participants
	start := 0
	for i := len(meeting.Messages) - 1; i >= 0; i-- {
		msg := meeting.Messages[i]
		if msg.SpeakerType != domain.SpeakerAgent {
			continue
		}
		for idx, p := range participants {
			if p.ID == msg.SpeakerID {
				start = (idx + 1) % len(participants)
				break
			}
		}
		break
	}

	rotated := make([]domain.Agent, len(participants))
	for i := range participants {
		rotated[i] = participants[(start+i)%len(participants)]
	}
	return rotated
}

func (s *Selector) randomOrder(participants []domain.Agent) []domain.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()

	shuffled := make([]domain.Agent, len(participants))
	copy(shuffled, participants)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

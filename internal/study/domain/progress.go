package domain

import "time"

// MaxActivities bounds the recent-activity log; oldest entries are evicted
// first.
const MaxActivities = 20

// PeriodProgress tracks one curriculum period.
type PeriodProgress struct {
	Mastery   int  `json:"mastery"` // 0-100
	Completed bool `json:"completed"`
}

// Activity is one entry in the recent-activity log.
type Activity struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Progress is the per-user learning-state aggregate. It is keyed by account id
// in storage, falling back to a single global key when no account is active.
type Progress struct {
	Periods           map[int]PeriodProgress `json:"periods"`
	Skills            map[string]int         `json:"skills"`
	PracticeQuestions int                    `json:"practiceQuestions"`
	StudyHours        float64                `json:"studyHours"`
	RSVPs             []int                  `json:"rsvps,omitempty"`
	Activities        []Activity             `json:"activities"`
}

// NewProgress returns a zero-valued progress record with initialized maps.
func NewProgress() Progress {
	return Progress{
		Periods: make(map[int]PeriodProgress),
		Skills:  make(map[string]int),
	}
}

// Normalize ensures the maps are usable after JSON decoding, which leaves
// absent objects nil.
func (p *Progress) Normalize() {
	if p.Periods == nil {
		p.Periods = make(map[int]PeriodProgress)
	}
	if p.Skills == nil {
		p.Skills = make(map[string]int)
	}
}

// AddActivity appends an entry to the activity log, evicting the oldest
// entries beyond MaxActivities. Order among survivors is preserved,
// oldest-first.
func (p *Progress) AddActivity(action string, now time.Time) {
	p.Activities = append(p.Activities, Activity{Action: action, Timestamp: now})
	if n := len(p.Activities); n > MaxActivities {
		p.Activities = p.Activities[n-MaxActivities:]
	}
}

// ToggleRSVP adds the session id to the RSVP list, or removes it when already
// present. It reports whether the id is now present.
func (p *Progress) ToggleRSVP(sessionID int) bool {
	for i, id := range p.RSVPs {
		if id == sessionID {
			p.RSVPs = append(p.RSVPs[:i], p.RSVPs[i+1:]...)
			return false
		}
	}
	p.RSVPs = append(p.RSVPs, sessionID)
	return true
}

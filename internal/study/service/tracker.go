package service

import (
	"context"
	"fmt"

	"github.com/libertybell/apstudy/internal/study/domain"
)

// Practice scoring: a correct answer bumps the period's mastery by this much,
// capped at 100.
const masteryPerCorrectAnswer = 5

// ProgressService records study interactions — practice questions, skill
// scores, study hours, session RSVPs — into the progress record owned by the
// session manager. It is the write-side collaborator the study pages call;
// all storage routing goes through the manager's key derivation.
type ProgressService struct {
	Sessions *SessionService
}

func (p *ProgressService) mutate(ctx context.Context, fn func(progress *domain.Progress)) (domain.Progress, error) {
	progress, err := p.Sessions.LoadProgress(ctx)
	if err != nil {
		return domain.Progress{}, err
	}
	fn(&progress)
	if err := p.Sessions.SaveProgress(ctx, progress); err != nil {
		return domain.Progress{}, err
	}
	return progress, nil
}

// RecordPractice counts a practice question for the period. Correct answers
// raise the period's mastery. An activity entry is logged either way.
func (p *ProgressService) RecordPractice(ctx context.Context, period int, correct bool) (domain.Progress, error) {
	return p.mutate(ctx, func(progress *domain.Progress) {
		progress.PracticeQuestions++

		pp := progress.Periods[period]
		if correct {
			pp.Mastery = min(100, pp.Mastery+masteryPerCorrectAnswer)
		}
		progress.Periods[period] = pp

		progress.AddActivity(
			fmt.Sprintf("Completed practice question in Period %d", period),
			p.Sessions.now(),
		)
	})
}

// RecordSkill stores a score for a reasoning skill.
func (p *ProgressService) RecordSkill(ctx context.Context, skillID string, score int) (domain.Progress, error) {
	return p.mutate(ctx, func(progress *domain.Progress) {
		progress.Skills[skillID] = score
	})
}

// AddStudyHours accumulates study time.
func (p *ProgressService) AddStudyHours(ctx context.Context, hours float64) (domain.Progress, error) {
	return p.mutate(ctx, func(progress *domain.Progress) {
		progress.StudyHours += hours
	})
}

// ToggleRSVP flips the RSVP state for a study session and logs the change.
func (p *ProgressService) ToggleRSVP(ctx context.Context, sessionID int) (domain.Progress, error) {
	return p.mutate(ctx, func(progress *domain.Progress) {
		action := "Cancelled RSVP"
		if progress.ToggleRSVP(sessionID) {
			action = "RSVPed for session"
		}
		progress.AddActivity(action, p.Sessions.now())
	})
}

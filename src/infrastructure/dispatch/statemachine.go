package dispatch

import (
	domainCampaign "go-campaign-api/src/domain/campaign"
	domainErrors "go-campaign-api/src/domain/errors"
)

// StateMachine guards campaign lifecycle transitions:
// draft -> running <-> paused -> completed | cancelled.
// completed and cancelled are terminal; any non-terminal state may be cancelled.
type StateMachine struct{}

// NewStateMachine creates the campaign lifecycle state machine
func NewStateMachine() StateMachine {
	return StateMachine{}
}

// CanTransition reports whether moving from one state to another is allowed
func (StateMachine) CanTransition(from, to domainCampaign.CampaignState) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case domainCampaign.StateRunning:
		return from == domainCampaign.StateDraft || from == domainCampaign.StatePaused
	case domainCampaign.StatePaused:
		return from == domainCampaign.StateRunning
	case domainCampaign.StateCompleted:
		return from == domainCampaign.StateRunning
	case domainCampaign.StateCancelled:
		return true
	}
	return false
}

// Transition applies a guarded transition to the campaign, recording the
// pause reason when pausing and clearing it otherwise
func (sm StateMachine) Transition(c *domainCampaign.Campaign, to domainCampaign.CampaignState, reason domainCampaign.PauseReason) error {
	if !sm.CanTransition(c.State, to) {
		return domainErrors.NewAppErrorWithType(domainErrors.InvalidStateTransition)
	}
	c.State = to
	if to == domainCampaign.StatePaused {
		c.PauseReason = reason
	} else {
		c.PauseReason = ""
	}
	return nil
}

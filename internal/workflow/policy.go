// Package workflow defines the legal status graph for defects. The table is
// declarative and consulted by the lifecycle service before any status change
// is persisted; nothing here performs I/O.
package workflow

import "github.com/systemcontrol/defect-service/internal/domain"

// transitions maps each status to the statuses it may move to. Self-loops are
// legal for every status and are not listed here.
var transitions = map[domain.DefectStatus][]domain.DefectStatus{
	domain.DefectStatusNew:        {domain.DefectStatusInProgress, domain.DefectStatusCancelled},
	domain.DefectStatusInProgress: {domain.DefectStatusInReview, domain.DefectStatusCancelled},
	domain.DefectStatusInReview:   {domain.DefectStatusClosed, domain.DefectStatusInProgress},
	domain.DefectStatusClosed:     {domain.DefectStatusInReview},
	domain.DefectStatusCancelled:  {domain.DefectStatusNew},
}

// CanTransition reports whether a defect may move from one status to another.
// Staying in the current status is always allowed.
func CanTransition(from, to domain.DefectStatus) bool {
	if from == to {
		return true
	}
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// AllowedNext returns every status reachable from the given one, including the
// status itself (remaining in place is a legal, if empty, move).
func AllowedNext(from domain.DefectStatus) []domain.DefectStatus {
	row := transitions[from]
	out := make([]domain.DefectStatus, 0, len(row)+1)
	out = append(out, from)
	out = append(out, row...)
	return out
}

// NextStates returns the statuses a defect can actually move to, excluding the
// current one. Used for client-side hints and transition error messages.
func NextStates(from domain.DefectStatus) []domain.DefectStatus {
	row := transitions[from]
	out := make([]domain.DefectStatus, len(row))
	copy(out, row)
	return out
}

package service

import "github.com/feastly/feastly/internal/domain"

// ReassignmentPolicy decides whether an approval transfers ownership of the
// recipe. The rule is keyed on the approving principal, not baked into the
// lifecycle; deployments that want approvals by a curation account to land
// recipes under a canonical author configure it here.
type ReassignmentPolicy interface {
	// Reassign returns the author id the recipe should be transferred to,
	// or nil to leave ownership unchanged.
	Reassign(approverID string, recipe *domain.Recipe) *string
}

// NoReassignment never transfers ownership.
type NoReassignment struct{}

func (NoReassignment) Reassign(string, *domain.Recipe) *string { return nil }

// StaticReassignment maps approver ids to canonical author ids.
type StaticReassignment struct {
	byApprover map[string]string
}

// NewStaticReassignment builds a policy from an approver-to-author map.
func NewStaticReassignment(byApprover map[string]string) *StaticReassignment {
	return &StaticReassignment{byApprover: byApprover}
}

func (p *StaticReassignment) Reassign(approverID string, _ *domain.Recipe) *string {
	if target, ok := p.byApprover[approverID]; ok && target != "" {
		return &target
	}
	return nil
}

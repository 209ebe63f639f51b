package domain

// PetStatus is the lifecycle state of a pet row.
type PetStatus string

const (
	PetStatusRegistered      PetStatus = "REGISTERED"
	PetStatusTransferPending PetStatus = "TRANSFER_PENDING"
)

// ReviewStatus is the state of a reviewable record. PENDING is the only
// non-terminal state.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewVerified ReviewStatus = "VERIFIED"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

// IsTerminal reports whether no further transition is allowed.
func (s ReviewStatus) IsTerminal() bool {
	return s != ReviewPending
}

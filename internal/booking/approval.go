package booking

import "github.com/kanemolly/campus-resource-hub/internal/resource"

// DecideInitialStatus picks the status a new booking starts in.
// Recurring series always wait for manual approval; otherwise the
// resource's approval policy decides.
func DecideInitialStatus(res *resource.Resource, isRecurring bool) Status {
	if isRecurring || res.RequiresApproval {
		return StatusPending
	}
	return StatusConfirmed
}

package mnx

import "context"

// Approver handles user interaction for approval workflows,
// particularly for destructive operations like resetting sink tables.
//
// Implementations:
//   - ForcedApprover: shows a countdown and approves
//   - InteractiveApprover: asks the user to type the target name
type Approver interface {
	// RequestApproval prompts for confirmation before dropping and recreating the tables of target.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - target: Name of the database or file being reset
	//
	// Returns:
	//   - bool: true if approved, false if denied
	//   - error: Any error that occurred during the approval process
	RequestApproval(ctx context.Context, target string) (bool, error)
}

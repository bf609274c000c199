// Package model defines core data structures for VibePilot.
package model

// Mode represents the assistant interaction mode.
type Mode string

const (
	// ModeAct lets the assistant apply changes directly.
	ModeAct Mode = "act"
	// ModePlan restricts the assistant to planning without changes.
	ModePlan Mode = "plan"
)

// Decision is the outcome of evaluating a prompt match against policy.
type Decision int

const (
	// DecisionPrompt leaves the prompt for the user to answer.
	DecisionPrompt Decision = iota
	// DecisionAccept answers the prompt automatically.
	DecisionAccept
)

// String returns the string representation of a Decision.
func (d Decision) String() string {
	switch d {
	case DecisionAccept:
		return "accept"
	case DecisionPrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// SessionStatus represents the current state of a wrapped session.
type SessionStatus string

const (
	// SessionStatusIdle indicates the session is not running.
	SessionStatusIdle SessionStatus = "idle"
	// SessionStatusRunning indicates the session is active.
	SessionStatusRunning SessionStatus = "running"
	// SessionStatusStopped indicates the session has been stopped.
	SessionStatusStopped SessionStatus = "stopped"
	// SessionStatusError indicates the session encountered an error.
	SessionStatusError SessionStatus = "error"
)

// EffectiveConfig is the resolved, per-session configuration consumed by the
// policy evaluator. It is immutable for the session's lifetime except that
// TrustedRoots may be appended to interactively.
type EffectiveConfig struct {
	// Yolo enables unattended auto-acceptance of confirmation prompts.
	Yolo bool
	// DangerouslySuppressYoloConfirmation skips the one-time session
	// confirmation normally required before YOLO acceptance.
	DangerouslySuppressYoloConfirmation bool
	// DangerouslyAllowInUntrustedRoot accepts trust prompts for any directory.
	DangerouslyAllowInUntrustedRoot bool
	// YoloConfirmed records that the one-time session confirmation has been
	// obtained from the user.
	YoloConfirmed bool
	// TrustedRoots lists filesystem paths pre-approved for unattended use.
	TrustedRoots []string
	// WorkDir is the directory the assistant runs in.
	WorkDir string
	// Mode selects act or plan behavior.
	Mode Mode
	// ShowNotifications enables desktop/webhook notifications.
	ShowNotifications bool
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	// Desktop enables desktop notifications via system APIs.
	Desktop bool `json:"desktop" mapstructure:"desktop"`
	// WebhookURL is the optional URL to send webhook notifications.
	WebhookURL string `json:"webhook_url,omitempty" mapstructure:"webhook_url"`
}

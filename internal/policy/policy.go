// Package policy decides whether a detected prompt is answered automatically
// or left for the user.
package policy

import (
	"path/filepath"
	"strings"

	"github.com/lazyvibe/vibepilot/internal/model"
	"github.com/lazyvibe/vibepilot/internal/pattern"
)

// Decide maps a match result and the effective configuration to a decision.
// It is a pure function: no I/O, no process state, deterministic for the
// same inputs. Precedence:
//
//  1. Startup/ready detectors are always accepted; the caller retires them.
//  2. Trust-root prompts are accepted only when the working directory is
//     within a trusted root, or the untrusted-root override is set.
//  3. Other confirmation prompts are accepted only in YOLO mode, and only
//     when the one-time session confirmation was obtained or suppressed.
//  4. Everything else falls through to prompting the user.
func Decide(match pattern.MatchResult, cfg model.EffectiveConfig) model.Decision {
	switch match.Kind {
	case pattern.KindStartup:
		return model.DecisionAccept

	case pattern.KindTrustRoot:
		if cfg.DangerouslyAllowInUntrustedRoot {
			return model.DecisionAccept
		}
		if withinRoots(cfg.WorkDir, cfg.TrustedRoots) {
			return model.DecisionAccept
		}
		return model.DecisionPrompt

	default:
		if !cfg.Yolo {
			return model.DecisionPrompt
		}
		if cfg.DangerouslySuppressYoloConfirmation || cfg.YoloConfirmed {
			return model.DecisionAccept
		}
		return model.DecisionPrompt
	}
}

// withinRoots reports whether dir equals or descends from any trusted root.
func withinRoots(dir string, roots []string) bool {
	if dir == "" {
		return false
	}
	dir = filepath.Clean(dir)
	for _, root := range roots {
		root = filepath.Clean(root)
		if root == "" || root == "." {
			continue
		}
		if dir == root || strings.HasPrefix(dir, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

package pattern

// Builtin returns the built-in prompt catalog for Claude Code style
// assistants. The catalog is best-effort; entries can be extended or
// shadowed by an external YAML catalog (see Load).
func Builtin() []Pattern {
	return []Pattern{
		{
			ID:       "theme-select",
			Regex:    `Choose the text style that looks best`,
			Trigger:  "Choose the text style",
			Category: CategoryAlways,
			Kind:     KindStartup,
			Response: Literal("\r"),
			OnceOnly: true,
		},
		{
			ID:       "startup-ready",
			Regex:    `(?m)Welcome to Claude`,
			Trigger:  "Welcome to",
			Category: CategoryAlways,
			Kind:     KindStartup,
			OnceOnly: true,
			Notify:   true,
		},
		{
			ID:       "trust-folder",
			Regex:    `Do you trust the files in this folder\?`,
			Trigger:  "Do you trust",
			Category: CategoryConfirmation,
			Kind:     KindTrustRoot,
			Response: Literal("\r"),
			Notify:   true,
		},
		{
			ID:       "bypass-permissions",
			Regex:    `Bypass Permissions mode`,
			Trigger:  "Bypass Permissions",
			Category: CategoryConfirmation,
			Kind:     KindGeneric,
			Response: Sequence("2", "\r"),
			Notify:   true,
		},
		{
			ID:       "tool-approval",
			Regex:    `(?m)Do you want to (?P<action>[^?\n]+)\?`,
			Trigger:  "Do you want to",
			Category: CategoryConfirmation,
			Kind:     KindGeneric,
			Response: Literal("1"),
			Notify:   true,
		},
		{
			ID:       "yes-no",
			Regex:    `(?i)\[y/n\]|\(y/n\)`,
			Trigger:  "y/n",
			Category: CategoryConfirmation,
			Kind:     KindGeneric,
			Response: Literal("y\r"),
		},
		{
			ID:       "press-enter",
			Regex:    `(?i)press enter to continue`,
			Trigger:  "Press Enter",
			Category: CategoryConfirmation,
			Kind:     KindGeneric,
			Response: Literal("\r"),
		},
	}
}

// NewBuiltinRegistry creates a registry seeded with the built-in catalog.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, p := range Builtin() {
		// Built-in entries are known-good; a failure here is a programming
		// error, not a configuration problem.
		if err := r.Add(p); err != nil {
			panic(err)
		}
	}
	return r
}

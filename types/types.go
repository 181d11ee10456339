// Package types defines the host capabilities the default change handler relies on.
package types

// Prompter asks the user a yes/no question (a browser's confirm dialog).
type Prompter interface {
	Confirm(message string) bool
}

// Reloader restarts the consuming application (a browser's location.reload).
type Reloader interface {
	Reload() error
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(message string) bool

// Confirm implements Prompter.
func (f PromptFunc) Confirm(message string) bool { return f(message) }

// ReloadFunc adapts a function to Reloader.
type ReloadFunc func() error

// Reload implements Reloader.
func (f ReloadFunc) Reload() error { return f() }

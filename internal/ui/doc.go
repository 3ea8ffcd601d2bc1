// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a three-view workflow for running check suites:
//  1. [SuiteListView] : Browse suites and pick one (or all) to run
//  2. [RunView] : Monitor live progress updates from the engine
//  3. [ResultView] : Review pass/fail tallies and failure messages
//
// The [Model] implements bubbletea's standard Init/Update/View pattern.
// Progress updates flow through a channel from the check engine, providing non-blocking status reporting during runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, a, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui

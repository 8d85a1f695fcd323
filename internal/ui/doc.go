// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through one comparison at a time:
//  1. [InputView] : Enter the two member handles (skipped when both are given on the command line)
//  2. [CompareView] : Watch harvesting and poster progress stream in
//  3. [ResultView] : Browse the shared films and open one in the browser
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the [tasks.Comparer], the same non-blocking channel the CLI reads.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, o, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui

// Package viz renders trajectories in the terminal.
//
//   - [RenderSummary] and [RenderCheck]: lipgloss panels printed by the CLI
//   - [Chart]: asciigraph line charts of a single series
//   - [Replay]: a Bubble Tea browser that steps through the samples of a run
//   - [Canvas]: Braille pixel canvas used by the replay view
//
// # Replay Key Bindings
//
//	Space   - Play/Pause
//	←/→     - Step one sample
//	[/]     - Jump to previous/next phase
//	Tab     - Cycle plotted series
//	T       - Cycle color themes
//	Q       - Quit
package viz

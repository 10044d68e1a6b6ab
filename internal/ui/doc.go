// Package ui implements the interactive movie explorer using bubbletea's Elm architecture.
//
// The TUI has two screens:
//  1. [LandingView] : now playing, top rated movies and top rated series, each paged locally
//  2. [ExplorerView] : catalog search with server-side pagination and a favorites tab
//
// Either screen can open a detail overlay for the selected movie. The [Model] never blocks in Update:
// catalog and favorites IO runs in commands and comes back as messages that the [explorer.Controller]
// sequences, so a late search response never overwrites a newer one.
//
// [Resolve] maps a requested path to the screen shown for the active identity.
package ui

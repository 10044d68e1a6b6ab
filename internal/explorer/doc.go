// Package explorer holds the view state of the movie explorer, independent of how it is rendered.
//
// # State Machine
//
// [Controller] moves between [Idle], [Searching], [Results], [NoResults] and [Detail]:
//
//	Idle --Submit--> Searching --ApplySearch--> Results | NoResults
//	Results | NoResults --ChangePage--> Searching
//	any --SetQuery("")--> Idle
//	Results | NoResults | Searching --ApplyDetail--> Detail --CloseDetail--> previous state
//
// The favorites tab is orthogonal: it switches the displayed collection without touching query, page or
// results, so returning to search resumes where it was left.
//
// # Request Sequencing
//
// Every search and detail request carries a monotonically increasing sequence number. Responses are
// applied only when their number matches the last issued request; anything older is dropped.
//
// # Landing Page
//
// [FetchLanding] loads now playing, top rated movies and top rated series concurrently and fails as a
// whole when any one of them fails.
package explorer

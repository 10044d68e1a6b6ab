// Package models defines the value types shared by the stores, the catalog client and the explorer.
//
// The package contains two categories of types:
//
// 1. Catalog values: immutable data fetched from the movie catalog
//   - [Movie] : list entry (movie or series) identified by its catalog id
//   - [MovieDetail] : full record shown in the detail modal
//   - [Page] : one page of a paginated listing
//
// 2. Local state: records owned by the local stores
//   - [UserProfile] : registered account with its favorites
//   - [Identity] : the single active identity, a tagged union of None, Local and External
//
// Identity is a closed sum type: the zero value is None and only the [Local] and [External] constructors produce the other variants,
// so a caller can never hold a local username and an external session at the same time.
package models

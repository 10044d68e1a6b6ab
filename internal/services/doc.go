// Package services defines the [Catalog], [Authenticator] and [AccountProvider] interfaces and implements them
// for The Movie Database v3 API in [TMDBService].
//
// # Authentication
//
// Requests carry the v3 api_key query parameter. When a v4 read access token is configured it is sent
// as a bearer token through an [oauth2.Transport] backed by a static token source instead.
//
// # Rate Limiting
//
// Every request waits on a [rate.Limiter] configured by tmdb.rate_limit (requests per second).
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingCredentials] : neither api_key nor read_access_token configured
//   - [shared.ErrNetworkFailure] : transport failure or non-2xx response
//   - [shared.ErrMovieNotFound] : movie id not found
//   - [shared.ErrAuthFailed] : request token rejected during session exchange
//
// Transport failures are not retried here; callers decide whether to degrade or retry.
//
// # API Mappings
//
// Series results expose name and first_air_date instead of title and release_date; both decode into
// [models.Movie] with MediaType set to "tv".
package services

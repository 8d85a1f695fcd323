// Package services talks to letterboxd.com.
//
// [Client] is the HTTP page fetcher behind the comparison pipeline. It sends a configured User-Agent, honours request timeouts and can cap requests per second
// with a token bucket. Non-2xx responses are errors wrapping [shared.ErrUnexpectedStatus]; transport
// failures wrap [shared.ErrFetchFailed]. The client never retries.
//
// [Site] builds profile, list and film URLs from the configured base URL, and [ParseHandle] turns user input
// (a handle or any profile URL) into a member handle.
package services

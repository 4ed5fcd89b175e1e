// Package library defines the domain model of the borrowing client:
// books, loans, reviews, cart contents, and user profiles, plus the
// cache key families under which each entity is stored.
//
// Everything here is plain data. The one piece of behavior is review
// eligibility, a derivation over loan history that is deliberately
// recomputed on every call rather than cached (see EligibleToReview).
package library

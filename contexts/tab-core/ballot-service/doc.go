// Package ballotservice implements the ballot coordination core inside the
// tab-core context.
//
// The module owns the ballot submission lifecycle (enter/confirm/discard/
// postpone), physical ballot check-in, the public submission gate, and the
// read-side dashboard tallies. Version allocation and the single-winner
// confirmation swap run inside a per-debate critical section owned by the
// Repository port; business rules stay in application/domain layers and
// infrastructure sits behind ports and adapters.
package ballotservice

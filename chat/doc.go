// Package chat defines the normalized domain model for live chat events
// and the engine that converts raw InnerTube wire actions into it.
//
// The wire protocol is undocumented, versionless, and polymorphic: each
// action may carry one of several renderer shapes, and membership/gift
// semantics are only present as free-form header text. Normalize
// dispatches across the recognized renderer variants and reconstructs
// structured semantics (membership tier, milestone months, gift counts,
// gifter/recipient identity) from a mix of structured fields and text
// pattern inference. Unrecognized variants are skipped, not errored on,
// so the engine keeps working across platform schema drift.
//
// Everything in this package is pure: no I/O, no retained references.
// Each emitted ChatItem is owned by the caller.
package chat

// Package textutil provides the deterministic naming helpers shared by the
// pipeline: collection slugs and filesystem-safe artifact name segments.
//
// Both transforms are pure functions of their input so that repeated runs
// over the same symbol/keyword/document always resolve to the same
// collection name and artifact path.
package textutil

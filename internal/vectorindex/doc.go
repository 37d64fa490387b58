// Package vectorindex provisions vector-store collections and writes
// embedded filing chunks into them. Collection naming is deterministic per
// symbol and keyword so re-runs land in the same collection.
package vectorindex

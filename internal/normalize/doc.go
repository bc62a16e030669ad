// Package normalize makes the backend's loosely-typed responses look uniform.
//
// A response body may arrive bare or wrapped in a "body" envelope whose value
// is either a JSON string or an already-decoded object. Unwrap removes the
// envelope, ExtractList locates the record list under its conventional keys,
// and NormalizeItem folds inconsistent key casing into canonical records.
//
// Nothing in this package returns an error: malformed input degrades to the
// rawest structure available, and callers decide whether an empty list means
// "no data" or a contract mismatch.
package normalize

// Package reducer implements the final reconciliation stage: among packages
// sharing a namespace and name, the most completely attributed version is
// kept and redundant subset siblings lose their attributions, after which a
// separate cleanup deletes every package left with no resources.
package reducer

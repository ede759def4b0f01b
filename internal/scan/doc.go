// Package scan implements the repository sweep behind the unshipped CLI.
//
// It exposes CommandBuilder for wiring the Cobra command and Service for
// driving a scan programmatically, together with the walking, probing,
// reconciling, and rendering abstractions the two are assembled from.
package scan

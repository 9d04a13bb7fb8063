// Package tracking maintains persistent object identities across frames.
// It associates each frame's classified detections to live tracks with a
// gated greedy nearest-neighbour match, spawns tracks for unmatched
// detections, and ages unmatched tracks toward termination.
//
// The tracker is the only stateful component in the pipeline and is
// inherently sequential: updates must arrive in strict frame order.
package tracking

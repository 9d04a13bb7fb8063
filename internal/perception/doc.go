// Package perception implements the per-frame detection stages of the
// object pipeline: ground-plane segmentation, density clustering, and
// feature-based classification.
//
// Every function in this package is a pure function of a single frame's
// points. Nothing here carries state between frames; cross-frame identity
// lives in the tracking package.
package perception

// SPDX-License-Identifier: EPL-2.0

// Package utils holds small sample-level helpers shared by the asset
// loader, the sampler node and the WAV sink.
package utils

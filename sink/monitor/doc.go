// SPDX-License-Identifier: EPL-2.0

// Package monitor observes rendered audio on its way to another sink.
//
// A Monitor summarises blocks into level readings (peak, RMS, clipped
// samples) and publishes them on a channel without ever blocking the
// renderer; readings that find the channel full are dropped and counted.
// UI draws the readings on a terminal with tcell and forwards pause and
// stop keys to a Controller.
package monitor

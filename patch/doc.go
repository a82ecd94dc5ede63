// SPDX-License-Identifier: EPL-2.0

// Package patch provides ready-made instrument templates.
//
// Every preset takes the amplitude envelope it should use and returns a
// validated graph template. The amplitude envelope is always the graph
// output, so it is the envelope a voice pool watches for reclamation.
// Node names are stable and can be addressed by parameter events, for
// example "filter.cutoff" on Bass or "vibrato.freq" on Pad.
package patch

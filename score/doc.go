// SPDX-License-Identifier: EPL-2.0

// Package score reads JSON scores and turns them into timed events.
//
// A score names an instrument, a tempo and a list of notes placed on a
// beat grid:
//
//	{
//	  "bpm": 120,
//	  "instrument": "piano",
//	  "notes": [{"pitch": "C4", "beat": 0, "length": 1, "velocity": 0.8}],
//	  "params": [{"beat": 2, "name": "cutoff", "value": 800}]
//	}
//
// Pitches are note names ("C#4", "Eb3") or MIDI numbers. A parameter
// without a note applies to every voice.
package score

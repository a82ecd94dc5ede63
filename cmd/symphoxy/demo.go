// SPDX-License-Identifier: EPL-2.0

package main

// demoScore is played when no -score is given.
const demoScore = `{
	"bpm": 96,
	"instrument": "piano",
	"notes": [
		{"pitch": "C4", "beat": 0, "length": 1, "velocity": 0.8},
		{"pitch": "E4", "beat": 1, "length": 1, "velocity": 0.7},
		{"pitch": "G4", "beat": 2, "length": 1, "velocity": 0.7},
		{"pitch": "C5", "beat": 3, "length": 2, "velocity": 0.9},
		{"pitch": "A3", "beat": 5, "length": 2, "velocity": 0.6},
		{"pitch": "C4", "beat": 5, "length": 2, "velocity": 0.6},
		{"pitch": "E4", "beat": 5, "length": 2, "velocity": 0.6},
		{"pitch": "F3", "beat": 7, "length": 2, "velocity": 0.6},
		{"pitch": "A3", "beat": 7, "length": 2, "velocity": 0.6},
		{"pitch": "C4", "beat": 7, "length": 2, "velocity": 0.6},
		{"pitch": "G3", "beat": 9, "length": 3, "velocity": 0.7},
		{"pitch": "B3", "beat": 9, "length": 3, "velocity": 0.7},
		{"pitch": "D4", "beat": 9, "length": 3, "velocity": 0.7},
		{"pitch": "G4", "beat": 9, "length": 3, "velocity": 0.7}
	]
}`

// SPDX-License-Identifier: EPL-2.0

// Package voice allocates graph instances to notes.
//
// A Pool holds a fixed number of voices, each an independent instance of
// one graph template. NoteOn binds a free voice to a note, stealing one
// when the pool is exhausted. A voice keeps sounding through its release
// and returns to the pool once its primary envelope has been done for
// the configured holdoff. Voices are always rendered in activation order,
// so identical input produces identical output.
package voice

// SPDX-License-Identifier: EPL-2.0

// Package render drives a synthesis session.
//
// A Session owns the sample clock, the event scheduler, the voice pool
// and one sink. Every call to RenderBlock pulls exactly n frames: due
// events are applied at the sample they target (or at the block start
// in block-quantized timing), voices are mixed, the clock advances by n
// and the block is handed to the sink. Run repeats this until the input
// is exhausted, the session is stopped, the context is cancelled, the
// configured duration is reached or the sink fails.
//
//	cfg := render.DefaultConfig()
//	tmpl, err := patch.Piano(patch.DefaultADSR(cfg.SampleRate))
//	if err != nil {
//		return err
//	}
//	s, err := render.NewSession(cfg, tmpl, out)
//	if err != nil {
//		return err
//	}
//	if err := s.ScheduleAll(events); err != nil {
//		return err
//	}
//	return s.Run(ctx)
//
// The same session renders offline to a WAV file and in real time to a
// live device; only the sink differs.
package render

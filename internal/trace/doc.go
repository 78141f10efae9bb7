// Package trace instruments the sire pipeline with leveled spans.
//
// Spans bracket the stages of a run (load, decode, reconstruct, validate,
// render) so that slow sources and hangs can be diagnosed:
//
//	sire tree --trace=- --trace-level=detail trace.json
//
// # Tracers
//
//   - Nop: no-op, used when tracing is off
//   - StreamTracer: writes every event immediately (text or NDJSON)
//   - RingTracer: keeps the last N events for a dump on panic
//   - MultiTracer: fans out to several tracers
//   - Recorder: turns spans into calltree enter/leave events, so a sire run
//     can itself be inspected with sire
//
// # Scopes and levels
//
// ScopeDriver covers whole commands, ScopeStage the pipeline stages and
// ScopeCall per-item work such as single sources in a batch. LevelPhase emits
// driver and stage spans, LevelDetail adds call spans, LevelDebug emits
// everything.
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "decode", 0)
//	defer span.End("")
package trace

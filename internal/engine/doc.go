// Package engine supervises external UCI chess engine subprocesses. It is
// structured into small files by concern:
//
//   - pool.go: Pool type, constructor, slot routing (Load, Stop, StopAll,
//     StartThinking, StopThinking) and read-only status projections.
//   - config.go: Config and package defaults; New applies defaults.
//   - slot.go: per-slot state, startup, the reader loop and teardown.
//   - think.go: the think dispatcher and search command rendering.
//   - protocol.go: the uci/isready handshake state machine and the output
//     accumulator.
//   - spawner.go: Spawner interface and the os/exec backed ExecSpawner.
//   - types.go: RunState, Expect, Selector, Status.
//   - errors.go: error types and helpers (IsInvalidPath, IsProtocol, ...).
//   - events.go: EventPublisher and MemoryPublisher.
//   - observer.go: LineLogger and the Observers fan-out.
//   - metrics.go: Prometheus collectors.
//
// Every slot field is guarded by the slot's own mutex. Pipe reads and writes
// never happen while that mutex is held; a stop closes the pipes, which is
// what unblocks a reader or writer parked in the kernel.
//
// External packages address slots by id only. Conn and Process are exported
// for Spawner implementations; once spawned they stay inside the package.
package engine

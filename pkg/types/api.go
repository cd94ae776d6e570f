package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// SlotStatus summarizes one engine slot for GET /engines.
type SlotStatus struct {
	// Slot index in [0,3).
	// example: 0
	ID int `json:"id" example:"0"`
	// Lifecycle state: stopped, starting or running.
	// example: running
	State string `json:"state" example:"running"`
	// True once the engine answered readyok.
	// example: true
	Ready bool `json:"ready" example:"true"`
	// Acknowledgement currently awaited: none, uciok or readyok.
	// example: none
	Expect string `json:"expect" example:"none"`
	// Engine configured for the slot, whether or not it is running.
	Engine Engine `json:"engine"`
	// Identifier of the running process; empty when stopped.
	// example: 4b0d3c1e-6f0e-4a6b-9a53-2a4c1f7d1e55
	RunID string `json:"run_id,omitempty" example:"4b0d3c1e-6f0e-4a6b-9a53-2a4c1f7d1e55"`
	// Process ID of the engine.
	// example: 12345
	PID int `json:"pid,omitempty" example:"12345"`
	// True while a search command is being written.
	Thinking bool `json:"thinking"`
	// Bytes of engine output currently retained.
	// example: 812
	OutputBytes int `json:"output_bytes" example:"812"`
	// Last bestmove parsed from the engine output.
	BestMove *BestMove `json:"best_move,omitempty"`
	// Spawn time (unix seconds); 0 when stopped.
	// example: 1700000000
	StartedUnix int64 `json:"started_unix,omitempty" example:"1700000000"`
	// Time the handshake completed (unix seconds).
	// example: 1700000001
	ReadyUnix int64 `json:"ready_unix,omitempty" example:"1700000001"`
	// True when this slot receives think requests.
	Active bool `json:"active"`
}

// EnginesResponse is returned by GET /engines.
type EnginesResponse struct {
	Engines []SlotStatus `json:"engines"`
	// Active selector: 0 none, 1..3 slot index + 1.
	// example: 1
	AutoPlay int `json:"auto_play" example:"1"`
}

// ActiveRequest selects the engine that receives think requests (PUT /active).
type ActiveRequest struct {
	// example: 1
	AutoPlay int `json:"auto_play" example:"1"`
}

// ThinkResponse is returned by POST /think/start.
type ThinkResponse struct {
	// False when no engine was ready to receive the command.
	// example: true
	Dispatched bool `json:"dispatched" example:"true"`
}

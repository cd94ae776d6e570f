package types

// Engine describes the executable configured for one slot.
type Engine struct {
	// Absolute path to the UCI engine executable.
	// example: /opt/engines/stockfish
	Path string `json:"path" example:"/opt/engines/stockfish"`
	// Optional endgame tablebase directory, available to the think command template.
	// example: /opt/syzygy
	TablebasePath string `json:"tablebase_path,omitempty" example:"/opt/syzygy"`
}

// BestMove is the last search result reported by an engine.
type BestMove struct {
	// example: e2e4
	Move string `json:"move" example:"e2e4"`
	// example: e7e5
	Ponder string `json:"ponder,omitempty" example:"e7e5"`
}

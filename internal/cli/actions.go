package cli

// Indirection layer to allow stubbing in tests

var (
	fnServe = runServe
	fnThink = runThink
	fnCheck = runCheck
)

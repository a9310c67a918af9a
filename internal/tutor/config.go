package tutor

// Config holds reply generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
	// ContextTurns is how many recent turns are replayed to the model.
	ContextTurns int
}

// DefaultConfig returns sensible defaults for reply generation.
func DefaultConfig() Config {
	return Config{
		MaxTokens:    1024,
		ContextTurns: 4,
	}
}

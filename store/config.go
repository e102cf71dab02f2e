package store

// maxBatchStatements is DynamoDB's limit for BatchExecuteStatement.
const maxBatchStatements = 25

// Config holds configuration for the Store.
type Config struct {
	// PageSize is the number of rows requested per round trip when the caller
	// sets none. DynamoDB evaluates at most this many items per page.
	// Default: 0 (DynamoDB's 1 MB page limit applies)
	PageSize int32

	// MaxBatchSize is the number of statements sent per BatchExecuteStatement
	// call. Larger batches are split.
	// Default: 25
	// Max: 25
	MaxBatchSize int

	// ConsistentRead requests strongly consistent reads.
	// Default: false (eventually consistent)
	ConsistentRead bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:     0,
		MaxBatchSize: maxBatchStatements,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.PageSize < 0 {
		c.PageSize = 0
	}
	if c.MaxBatchSize < 1 || c.MaxBatchSize > maxBatchStatements {
		c.MaxBatchSize = maxBatchStatements
	}
}

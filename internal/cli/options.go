package cli

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	ConfigPath string
	Dir        string
	Sequence   string
	Headless   bool
	Instant    bool
	Watch      bool
	Debug      bool
	// Fresh clears the store before the conversation starts.
	Fresh bool
}

package internal

// Option configures the application before Run or RunMCP starts it.
type Option func(*application)

// application carries the assembled runtime settings.
type application struct {
	config *Config
}

// WithConfig supplies the loaded configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

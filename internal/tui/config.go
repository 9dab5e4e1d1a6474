package tui

// Config holds review screen configuration.
type Config struct {
	Theme         Theme
	Width         int
	Height        int
	LowConfidence float64 // Results below this count as low confidence
}

// Option is a functional option for configuring the review screen.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:         DefaultTheme,
		Width:         100,
		Height:        30,
		LowConfidence: 0.4,
	}
}

// WithTheme sets the theme.
func WithTheme(theme Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithLowConfidence sets the low confidence threshold used by the filter.
func WithLowConfidence(threshold float64) Option {
	return func(c *Config) {
		c.LowConfidence = threshold
	}
}

package config

const (
	defaultOutputDir    = "~/.local/share/alsrescue/recovered"
	defaultLogDir       = "~/.local/share/alsrescue/logs"
	defaultManifestPath = "~/.local/share/alsrescue/manifest.db"
	defaultHeaderBytes  = 64
	defaultMinFreeGiB   = 1
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
			ManifestPath: defaultManifestPath,
		},
		Scan: Scan{
			Workers:     0,
			HeaderBytes: defaultHeaderBytes,
			MinFreeGiB:  defaultMinFreeGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

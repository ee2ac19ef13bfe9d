package config

const (
	defaultWorkspaceDir         = "~/.local/share/purlmatch"
	defaultLogDir               = "~/.local/share/purlmatch/logs"
	defaultPurlDBBaseURL        = "https://public.purldb.io/api"
	defaultPurlDBRequestTimeout = 120
	defaultPurlDBChunkSize      = 1000
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// defaultArchiveExtensions lists the file extensions the scanner flags as
// archives. Matches the package formats PurlDB indexes whole archives for.
var defaultArchiveExtensions = []string{
	".7z", ".apk", ".aar", ".bz2", ".crate", ".ear", ".gem", ".gz",
	".jar", ".nupkg", ".rpm", ".sdist", ".tar", ".tar.bz2", ".tar.gz",
	".tar.xz", ".tgz", ".war", ".whl", ".xz", ".zip",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
		},
		PurlDB: PurlDB{
			BaseURL:        defaultPurlDBBaseURL,
			RequestTimeout: defaultPurlDBRequestTimeout,
			ChunkSize:      defaultPurlDBChunkSize,
		},
		Scanner: Scanner{
			ArchiveExtensions: append([]string(nil), defaultArchiveExtensions...),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

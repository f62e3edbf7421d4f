package config

// Layout default values.
var (
	DefaultManifestFiles = []string{"build.gradle"}
	DefaultMainDirs      = []string{"src/main"}
	DefaultTestDirs      = []string{"src/test"}
	DefaultSkipDirs      = []string{".git", ".gradle", ".idea", "build", "out", "node_modules"}
	DefaultLanguages     = []string{"java", "kotlin", "proto"}
)

// Pipeline default values.
const (
	DefaultPipelineWorkers     = 0
	DefaultPipelineMaxFileSize = "1MiB"
)

// Logging default values.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Telemetry default values.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultOTLPHeaders  = ""
	DefaultMetricsFile  = ""
)

package utils

const (
	// ConfigFileName is the name of the local configuration file.
	ConfigFileName = ".snapshot.yaml"
	// GlobalConfigFileName is the name of the configuration file inside GlobalConfigDirectoryName.
	GlobalConfigFileName = "config.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding global configuration.
	GlobalConfigDirectoryName = ".snapshot"
)

const (
	// LoggerInitializationFailedMessageFormat reports a logger construction failure.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes a fatal application error.
	ApplicationExecutionFailedMessage = "snapshot failed"
)

// IgnoreFileName is the per-root file listing glob patterns excluded from snapshots.
const IgnoreFileName = ".snapshotignore"

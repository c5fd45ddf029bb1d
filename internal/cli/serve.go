package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/snapshot/internal/services/mcp"
)

const (
	serveUse              = "serve"
	serveShortDescription = "serve snapshots over local HTTP"
	// serveLongDescription provides detailed help for the serve command.
	serveLongDescription = `Answer POST /snapshot requests with the snapshot of the requested paths.
Requests name paths relative to the first workspace root and may add
excludeExtensions and excludePaths. Paths outside the workspace roots are refused.`
	// serveUsageExample demonstrates serve command usage.
	serveUsageExample = `  # Serve the current directory on a fixed port
  snapshot serve --address 127.0.0.1:7410

  # Request a snapshot
  curl -s -X POST localhost:7410/snapshot -d '{"paths":["internal"]}'`

	addressFlagName        = "address"
	defaultServeAddress    = "127.0.0.1:0"
	addressFlagDescription = "listen address"
	serveListeningFormat   = "Serving snapshots on http://%s\n"
)

// createServeCommand returns the serve subcommand.
func createServeCommand(env environment, debugEnabled *bool) *cobra.Command {
	var options copyOptions
	var address string

	serveCommand := &cobra.Command{
		Use:     serveUse,
		Short:   serveShortDescription,
		Long:    serveLongDescription,
		Example: serveUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			logger, release, loggerError := env.resolveLogger(*debugEnabled)
			if loggerError != nil {
				return loggerError
			}
			defer release()

			settings, settingsError := resolveCopySettings(env, options.overrides(command), options.configPath, options.roots, true)
			if settingsError != nil {
				return settingsError
			}
			snapshotter := mcp.NewSnapshotter(mcp.SnapshotterConfig{
				FileSystem:        env.snapshotFileSystem(),
				Roots:             settings.roots,
				ExcludeExtensions: settings.excludeExtensions,
				ExcludePaths:      settings.excludePatterns,
				Options:           settings.options,
				Logger:            logger,
			})
			server := mcp.NewServer(mcp.Config{
				Address:     address,
				Snapshotter: snapshotter,
				Logger:      logger,
			})
			logger.Debug("workspace roots", zap.Strings("roots", settings.roots))
			return runInterruptible(command.Context(), env.signals, func(serveContext context.Context) error {
				return server.Run(serveContext, func(boundAddress string) {
					fmt.Fprintf(command.OutOrStdout(), serveListeningFormat, boundAddress)
				})
			})
		},
	}

	flags := serveCommand.Flags()
	flags.StringVar(&address, addressFlagName, defaultServeAddress, addressFlagDescription)
	flags.StringArrayVar(&options.roots, rootFlagName, nil, rootFlagDescription)
	flags.StringArrayVar(&options.excludeExtensions, excludeExtensionFlagName, nil, excludeExtensionFlagDescription)
	flags.StringArrayVarP(&options.excludePatterns, excludeFlagName, excludeFlagShorthand, nil, excludeFlagDescription)
	registerOptionalBooleanFlag(flags, &options.binaryPlaceholder, binaryPlaceholderFlagName, binaryPlaceholderFlagDescription)
	registerOptionalBooleanFlag(flags, &options.useIgnoreFile, ignoreFileFlagName, ignoreFileFlagDescription)
	registerOptionalBooleanFlag(flags, &options.tokensEnabled, tokensFlagName, tokensFlagDescription)
	flags.StringVar(&options.model, modelFlagName, "", modelFlagDescription)
	flags.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	return serveCommand
}

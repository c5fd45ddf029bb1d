// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/temirov/snapshot/internal/config"
	"github.com/temirov/snapshot/internal/services/clipboard"
	"github.com/temirov/snapshot/internal/services/filesystem"
	"github.com/temirov/snapshot/internal/services/terminal"
	"github.com/temirov/snapshot/internal/snapshot"
	"github.com/temirov/snapshot/internal/tokenizer"
	"github.com/temirov/snapshot/internal/utils"
)

const (
	versionFlagName           = "version"
	debugFlagName             = "debug"
	rootFlagName              = "root"
	absoluteFlagName          = "absolute"
	excludeExtensionFlagName  = "exclude-ext"
	excludeFlagName           = "exclude"
	excludeFlagShorthand      = "e"
	yesFlagName               = "yes"
	yesFlagShorthand          = "y"
	printFlagName             = "print"
	binaryPlaceholderFlagName = "binary-placeholder"
	ignoreFileFlagName        = "ignore-file"
	confirmThresholdFlagName  = "confirm-threshold"
	tokensFlagName            = "tokens"
	modelFlagName             = "model"
	configFlagName            = "config"
	globalFlagName            = "global"
	forceFlagName             = "force"

	versionTemplate      = "snapshot version: %s\n"
	rootUse              = "snapshot"
	rootShortDescription = "snapshot command line interface"
	rootLongDescription  = `snapshot copies the contents of files and folders to the clipboard as one
plain-text document, ready to paste into a chat prompt or an issue.
Use copy to take a snapshot, init to write a default configuration, and --version to print the application version.`
	versionFlagDescription = "display application version"
	debugFlagDescription   = "enable debug logging"

	copyUse              = "copy [paths...]"
	copyAlias            = "cp"
	copyShortDescription = "copy a snapshot of files and folders (" + copyAlias + ")"
	// copyLongDescription provides detailed help for the copy command.
	copyLongDescription = `Collect every file under the given paths, in the order given, and copy them
to the clipboard. Each file is rendered as

  File: <path>
  Contents:
  <contents>
  ---

Paths are shown relative to the workspace root (the working directory unless
--root is given). Copying more than ten files asks for confirmation first.`
	// copyUsageExample demonstrates copy command usage.
	copyUsageExample = `  # Copy a folder, leaving out images
  snapshot copy --exclude-ext .png --exclude-ext .jpg ./assets

  # Print the snapshot instead of using the clipboard
  snapshot copy --print main.go internal/

  # Skip confirmation and report an estimated token count
  snapshot cp -y --tokens .`

	initUse              = "init"
	initShortDescription = "write a default configuration file"
	// initLongDescription provides detailed help for the init command.
	initLongDescription = `Write a default configuration to ./` + utils.ConfigFileName + ` or, with --global,
to ~/` + utils.GlobalConfigDirectoryName + `/` + utils.GlobalConfigFileName + `.`

	rootFlagDescription              = "workspace root used to shorten displayed paths (repeatable)"
	absoluteFlagDescription          = "display absolute paths"
	excludeExtensionFlagDescription  = "file extension to leave out (repeatable)"
	excludeFlagDescription           = "exclude path pattern relative to the workspace root (repeatable)"
	yesFlagDescription               = "copy without asking for confirmation"
	printFlagDescription             = "write the snapshot to standard output instead of the clipboard"
	binaryPlaceholderFlagDescription = "replace binary file contents with a placeholder"
	ignoreFileFlagDescription        = "read exclusion patterns from " + utils.IgnoreFileName + " in each workspace root"
	confirmThresholdFlagDescription  = "ask for confirmation above this many files (negative disables)"
	tokensFlagDescription            = "include an estimated token count"
	modelFlagDescription             = "tokenizer model to use for token counting"
	configFlagDescription            = "configuration file to use instead of ./" + utils.ConfigFileName
	globalFlagDescription            = "write the global configuration"
	forceFlagDescription             = "overwrite an existing configuration file"

	initCompletedFormat         = "Configuration written to %s\n"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	// errorAbsolutePathFormat reports failure to resolve an absolute path.
	errorAbsolutePathFormat = "abs failed for '%s': %w"
	loggerErrorFormat       = "initialize logger: %w"
)

// environment holds the process-level collaborators of the commands.
type environment struct {
	workingDirectory string
	fileSystem       afero.Fs
	clipboard        clipboard.Writer
	stdout           io.Writer
	stderr           io.Writer
	interactive      bool
	signals          <-chan os.Signal
	logger           *zap.Logger
}

// Execute runs the snapshot application.
func Execute() error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	rootCommand := createRootCommand(environment{
		fileSystem:  afero.NewOsFs(),
		clipboard:   clipboard.NewService(),
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		interactive: term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd())),
		signals:     signals,
	})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(env environment) *cobra.Command {
	var showVersion bool
	var debugEnabled bool

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.SetOut(env.stdout)
	rootCommand.SetErr(env.stderr)
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().BoolVar(&debugEnabled, debugFlagName, false, debugFlagDescription)
	rootCommand.AddCommand(
		createCopyCommand(env, &debugEnabled),
		createServeCommand(env, &debugEnabled),
		createInitCommand(env),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// copyOptions stores the copy command flags. Nil pointers and empty slices
// leave the configured value in place.
type copyOptions struct {
	roots             []string
	absolutePaths     *bool
	excludeExtensions []string
	excludePatterns   []string
	assumeYes         bool
	printOutput       bool
	binaryPlaceholder *bool
	useIgnoreFile     *bool
	confirmThreshold  int
	tokensEnabled     *bool
	model             string
	configPath        string
}

// overrides converts the flags into a configuration overlay.
func (options copyOptions) overrides(command *cobra.Command) config.ApplicationConfiguration {
	overlay := config.CopyConfiguration{
		ExcludeExtensions: options.excludeExtensions,
		ExcludePaths:      options.excludePatterns,
		AbsolutePaths:     options.absolutePaths,
		BinaryPlaceholder: options.binaryPlaceholder,
		UseIgnoreFile:     options.useIgnoreFile,
		Tokens: config.TokenConfiguration{
			Enabled: options.tokensEnabled,
			Model:   options.model,
		},
	}
	if command != nil && command.Flags().Changed(confirmThresholdFlagName) {
		threshold := options.confirmThreshold
		overlay.ConfirmThreshold = &threshold
	}
	return config.ApplicationConfiguration{Copy: overlay}
}

// createCopyCommand returns the copy subcommand.
func createCopyCommand(env environment, debugEnabled *bool) *cobra.Command {
	var options copyOptions

	copyCommand := &cobra.Command{
		Use:     copyUse,
		Aliases: []string{copyAlias},
		Short:   copyShortDescription,
		Long:    copyLongDescription,
		Example: copyUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			logger, release, loggerError := env.resolveLogger(*debugEnabled)
			if loggerError != nil {
				return loggerError
			}
			defer release()
			return runCopy(command.Context(), env, logger, options.overrides(command), options, arguments)
		},
	}

	flags := copyCommand.Flags()
	flags.StringArrayVar(&options.roots, rootFlagName, nil, rootFlagDescription)
	registerOptionalBooleanFlag(flags, &options.absolutePaths, absoluteFlagName, absoluteFlagDescription)
	flags.StringArrayVar(&options.excludeExtensions, excludeExtensionFlagName, nil, excludeExtensionFlagDescription)
	flags.StringArrayVarP(&options.excludePatterns, excludeFlagName, excludeFlagShorthand, nil, excludeFlagDescription)
	flags.BoolVarP(&options.assumeYes, yesFlagName, yesFlagShorthand, false, yesFlagDescription)
	flags.BoolVar(&options.printOutput, printFlagName, false, printFlagDescription)
	registerOptionalBooleanFlag(flags, &options.binaryPlaceholder, binaryPlaceholderFlagName, binaryPlaceholderFlagDescription)
	registerOptionalBooleanFlag(flags, &options.useIgnoreFile, ignoreFileFlagName, ignoreFileFlagDescription)
	flags.IntVar(&options.confirmThreshold, confirmThresholdFlagName, snapshot.DefaultConfirmThreshold, confirmThresholdFlagDescription)
	registerOptionalBooleanFlag(flags, &options.tokensEnabled, tokensFlagName, tokensFlagDescription)
	flags.StringVar(&options.model, modelFlagName, "", modelFlagDescription)
	flags.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	return copyCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand(env environment) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destination, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: env.workingDirectory,
			})
			if initError != nil {
				return initError
			}
			fmt.Fprintf(command.OutOrStdout(), initCompletedFormat, destination)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&global, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// copySettings is the effective configuration of one copy or serve run.
type copySettings struct {
	workingDirectory  string
	roots             []string
	excludeExtensions []string
	excludePatterns   []string
	options           snapshot.Options
}

// resolveCopySettings loads the configuration files, overlays the flags and
// prepares the orchestrator options. forceRoots keeps workspace roots even
// when absolute paths are configured.
func resolveCopySettings(env environment, overlay config.ApplicationConfiguration, configPath string, rootFlags []string, forceRoots bool) (copySettings, error) {
	workingDirectory := env.workingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return copySettings{}, fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: configPath,
	})
	if configurationError != nil {
		return copySettings{}, configurationError
	}
	copyConfiguration := applicationConfiguration.Merge(overlay).Copy

	var roots []string
	if forceRoots || !config.BoolValue(copyConfiguration.AbsolutePaths, false) {
		resolvedRoots, rootsError := resolveRoots(workingDirectory, rootFlags)
		if rootsError != nil {
			return copySettings{}, rootsError
		}
		roots = resolvedRoots
	}

	exclusionPatterns := copyConfiguration.ExcludePaths
	if config.BoolValue(copyConfiguration.UseIgnoreFile, true) && len(roots) > 0 {
		loadedPatterns, ignoreError := config.LoadRootIgnorePatterns(env.files(), roots, exclusionPatterns)
		if ignoreError != nil {
			return copySettings{}, ignoreError
		}
		exclusionPatterns = loadedPatterns
	}
	patterns, patternError := snapshot.NewPatternSet(exclusionPatterns...)
	if patternError != nil {
		return copySettings{}, patternError
	}

	var tokenCounter snapshot.TokenCounter
	var tokenModel string
	if config.BoolValue(copyConfiguration.Tokens.Enabled, false) {
		createdCounter, resolvedModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: copyConfiguration.Tokens.Model})
		if counterError != nil {
			return copySettings{}, counterError
		}
		tokenCounter = createdCounter
		tokenModel = resolvedModel
	}

	return copySettings{
		workingDirectory:  workingDirectory,
		roots:             roots,
		excludeExtensions: copyConfiguration.ExcludeExtensions,
		excludePatterns:   exclusionPatterns,
		options: snapshot.Options{
			Exclusions:       snapshot.NewExclusionSet(copyConfiguration.ExcludeExtensions...),
			Patterns:         patterns,
			ConfirmThreshold: config.IntValue(copyConfiguration.ConfirmThreshold, snapshot.DefaultConfirmThreshold),
			Decode: snapshot.DecodeOptions{
				BinaryPlaceholder: config.BoolValue(copyConfiguration.BinaryPlaceholder, false),
			},
			TokenCounter: tokenCounter,
			TokenModel:   tokenModel,
		},
	}, nil
}

// runCopy runs the orchestrator until it finishes or a signal cancels it.
func runCopy(
	ctx context.Context,
	env environment,
	logger *zap.Logger,
	overlay config.ApplicationConfiguration,
	options copyOptions,
	arguments []string,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	console := terminal.NewConsole(terminal.Options{
		Output:      env.stderr,
		Interactive: env.interactive,
		AssumeYes:   options.assumeYes,
	})
	if len(arguments) == 0 {
		// An empty selection is reported before configuration or files are read.
		_, runError := snapshot.NewOrchestrator(snapshot.Dependencies{Interaction: console, Logger: logger}, snapshot.Options{}).Run(ctx, snapshot.Invocation{})
		return runError
	}
	settings, settingsError := resolveCopySettings(env, overlay, options.configPath, options.roots, false)
	if settingsError != nil {
		return settingsError
	}
	selection, selectionError := resolveSelection(settings.workingDirectory, arguments)
	if selectionError != nil {
		return selectionError
	}

	var writer clipboard.Writer = env.clipboard
	if options.printOutput {
		writer = clipboard.NewStreamSink(env.stdout)
	}
	orchestratorOptions := settings.options
	orchestratorOptions.SkipConfirmation = options.assumeYes

	orchestrator := snapshot.NewOrchestrator(snapshot.Dependencies{
		FileSystem:  env.snapshotFileSystem(),
		Interaction: console,
		Clipboard:   writer,
		Roots:       snapshot.NewWorkspaceRoots(settings.roots...),
		Logger:      logger,
	}, orchestratorOptions)

	invocation := snapshot.Invocation{Target: selection[0], Selected: selection}
	return runInterruptible(ctx, env.signals, func(runContext context.Context) error {
		_, runError := orchestrator.Run(runContext, invocation)
		return runError
	})
}

// resolveRoots returns the absolute workspace roots, defaulting to the working directory.
func resolveRoots(workingDirectory string, roots []string) ([]string, error) {
	if len(roots) == 0 {
		return []string{workingDirectory}, nil
	}
	return resolveSelection(workingDirectory, roots)
}

// resolveSelection converts input paths to absolute form, keeping order and duplicates.
func resolveSelection(workingDirectory string, inputs []string) ([]string, error) {
	resolved := make([]string, 0, len(inputs))
	for _, inputPath := range inputs {
		candidate := inputPath
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(workingDirectory, candidate)
		}
		absolutePath, absolutePathError := filepath.Abs(candidate)
		if absolutePathError != nil {
			return nil, fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
		}
		resolved = append(resolved, absolutePath)
	}
	return resolved, nil
}

// files returns the injected file system, defaulting to the operating system.
func (env environment) files() afero.Fs {
	if env.fileSystem == nil {
		return afero.NewOsFs()
	}
	return env.fileSystem
}

func (env environment) snapshotFileSystem() *filesystem.Service {
	return filesystem.NewService(env.files())
}

// resolveLogger returns the injected logger or builds the console logger. The
// returned release func flushes a built logger.
func (env environment) resolveLogger(debugEnabled bool) (*zap.Logger, func(), error) {
	if env.logger != nil {
		return env.logger, func() {}, nil
	}
	var createdLogger *zap.Logger
	var loggerError error
	if debugEnabled {
		createdLogger, loggerError = utils.NewDebugLogger()
	} else {
		createdLogger, loggerError = utils.NewApplicationLogger()
	}
	if loggerError != nil {
		return nil, nil, fmt.Errorf(loggerErrorFormat, loggerError)
	}
	return createdLogger, func() {
		_ = createdLogger.Sync()
	}, nil
}

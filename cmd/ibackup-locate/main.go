package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/grantbirki/ibackup-locate/internal/backup"
	"github.com/grantbirki/ibackup-locate/internal/logger"
	"github.com/grantbirki/ibackup-locate/internal/utils"
	"github.com/grantbirki/ibackup-locate/internal/version"
	"github.com/spf13/cobra"
)

// Process exit codes
const (
	ExitFound        = 0
	ExitUsage        = 1
	ExitNotFound     = -1
	ExitIncompatible = -2
)

const (
	formatText = "text"
	formatJSON = "json"
)

// exitError carries a process exit code out of a cobra RunE
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Options holds every flag of the root command
type Options struct {
	DevicePath string
	BundleID   string
	// set when the flag was given, even with an empty value
	HasDevicePath bool
	HasBundleID   bool
	BackupPath    string
	ListDomains   bool
	Format        string
	LogLevel      string
	Verbose       bool
	NoColor       bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return ExitFound
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitUsage
}

// NewRootCommand creates the root command
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "ibackup-locate",
		Short: "Locate files inside a local iTunes/Finder iPhone backup",
		Long: `ibackup-locate maps logical iOS filesystem paths and app bundle identifiers
to the hashed files stored in an unencrypted iTunes or Finder backup.

The backup's Info.plist is checked first: backups made by iOS older than 11.0
are rejected. Lookups then query Manifest.db and print the on-disk location
of each file (<backup>/<first two chars of fileID>/<fileID>).

Exit codes:
   0  file or paths found (or no lookup requested)
  -1  lookup performed but nothing found
  -2  backup version incompatible

Examples:
  ibackup-locate --backup-path /path/to/backup -d Library/SMS/sms.db
  ibackup-locate --backup-path /path/to/backup -d HomeDomain-Library/SMS/sms.db
  ibackup-locate --backup-path /path/to/backup -b com.facebook.Facebook
  ibackup-locate --backup-path /path/to/backup --list-domains --format json`,
		Args:          cobra.NoArgs,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.NoColor {
				color.NoColor = true
			}

			// LOG_LEVEL is only consulted when --log-level was not given
			if !cmd.Flags().Changed("log-level") {
				if envLogLevel := os.Getenv("LOG_LEVEL"); envLogLevel != "" {
					opts.LogLevel = envLogLevel
				}
			}

			var ok bool
			if opts.LogLevel, ok = utils.NormalizeChoice(opts.LogLevel, logger.Levels...); !ok {
				return fmt.Errorf("invalid log level '%s'. Valid levels: debug, info, warn, error", opts.LogLevel)
			}
			if opts.Format, ok = utils.NormalizeChoice(opts.Format, formatText, formatJSON); !ok {
				return fmt.Errorf("invalid format '%s'. Valid formats: text, json", opts.Format)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.HasDevicePath = cmd.Flags().Changed("device-path")
			opts.HasBundleID = cmd.Flags().Changed("bundle-paths")

			log := logger.New(logger.Config{
				Level:   logger.LogLevel(opts.LogLevel),
				Output:  stderr,
				Verbose: opts.Verbose,
			})
			return runLocate(opts, newReporter(stdout, opts.Format), log)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.Flags().StringVarP(&opts.DevicePath, "device-path", "d", "", "lookup a single iOS filesystem path (e.g. 'Library/SMS/sms.db') and print the corresponding file inside the backup")
	cmd.Flags().StringVarP(&opts.BundleID, "bundle-paths", "b", "", "lookup all backed-up files belonging to a bundle identifier (e.g. 'com.apple.MobileSMS' or 'com.facebook.Messenger')")
	cmd.Flags().StringVar(&opts.BackupPath, "backup-path", ".", "path to the root folder of the local iOS backup")
	cmd.Flags().BoolVarP(&opts.ListDomains, "list-domains", "l", false, "list every domain recorded in Manifest.db")
	cmd.Flags().StringVar(&opts.Format, "format", formatText, "output format (text, json)")

	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().BoolVar(&opts.Verbose, "verbose", false, "enable verbose logging")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

// runLocate checks the backup and dispatches to at most one lookup.
// --device-path wins over --bundle-paths, which wins over --list-domains.
func runLocate(opts Options, out *reporter, log *logger.Logger) error {
	log = log.With("backup_path", opts.BackupPath)

	compatible, ver, info, err := backup.CheckBackupInfo(opts.BackupPath)
	if err != nil {
		reportInfoPlistError(log, err)
	}
	if !compatible {
		if err := out.incompatible(ver); err != nil {
			return err
		}
		return &exitError{code: ExitIncompatible}
	}

	describeBackup(opts.BackupPath, info, log)
	resolver := backup.NewResolver(opts.BackupPath, log)

	switch {
	case opts.HasDevicePath:
		resolved, err := resolver.ResolvePath(opts.DevicePath)
		if err != nil {
			reportManifestError(log, err)
		}
		if err := out.path(opts.DevicePath, resolved); err != nil {
			return err
		}
		if resolved == nil {
			return &exitError{code: ExitNotFound}
		}

	case opts.HasBundleID:
		files, err := resolver.ResolveBundle(opts.BundleID)
		if err != nil {
			reportManifestError(log, err)
		} else if files == nil {
			log.Warn("No files found for bundle", "bundle", opts.BundleID)
		}
		if err := out.bundle(opts.BundleID, files); err != nil {
			return err
		}
		if len(files) == 0 {
			return &exitError{code: ExitNotFound}
		}

	case opts.ListDomains:
		domains, err := resolver.ListDomains()
		if err != nil {
			reportManifestError(log, err)
		}
		if err := out.domains(domains); err != nil {
			return err
		}
		if len(domains) == 0 {
			return &exitError{code: ExitNotFound}
		}

	default:
		log.Debug("No lookup requested, compatibility check only")
	}

	return nil
}

// describeBackup logs device details and warns about encrypted backups
func describeBackup(backupPath string, info *backup.InfoPlist, log *logger.Logger) {
	if info != nil {
		log.Debug("Backup device",
			"device_name", info.DeviceName,
			"product_type", info.ProductType,
			"ios_version", info.ProductVersion,
			"build", info.BuildVersion,
			"udid", info.UniqueIdentifier)
	}

	manifest, err := backup.ReadManifestPlist(backupPath)
	if err != nil {
		log.Debug("Manifest.plist not readable", "error", err)
		return
	}
	if manifest.IsEncrypted {
		log.Warn("Backup is encrypted; encrypted backups are not supported and lookups will likely fail")
	}
}

func reportInfoPlistError(log *logger.Logger, err error) {
	switch {
	case errors.Is(err, backup.ErrInfoPlistNotFound):
		log.Error("Info.plist not found")
	case errors.Is(err, backup.ErrInfoPlistUnreadable):
		log.Error("Info.plist could not be read", "error", err)
	default:
		log.Error("Info.plist is malformed", "error", err)
	}
}

func reportManifestError(log *logger.Logger, err error) {
	switch {
	case errors.Is(err, backup.ErrManifestNotFound):
		log.Error("Manifest.db not found")
	case errors.Is(err, backup.ErrManifestQuery):
		log.Error("Could not query Manifest.db, is it a valid iTunes backup?", "error", err)
	default:
		log.Error("Lookup failed", "error", err)
	}
}

// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/navwar/gomirror/pkg/fs"
	"github.com/navwar/gomirror/pkg/lfs"
	"github.com/navwar/gomirror/pkg/log"
	"github.com/navwar/gomirror/pkg/mirror"
	"github.com/navwar/gomirror/pkg/s3fs"
	"github.com/navwar/gomirror/pkg/ts"
)

const (
	GoMirrorVersion = "0.0.1"
)

// Files
const (
	DotEnvFileName = ".env"
	LogFileName    = "gomirror.log"
	LockFileName   = "gomirror.lock"
)

// AWS Flags
const (
	// Profile
	flagAWSProfile       = "aws-profile"
	flagAWSDefaultRegion = "aws-default-region"
	flagAWSRegion        = "aws-region"
	// Credentials
	flagAWSAccessKeyID     = "aws-access-key-id"
	flagAWSSecretAccessKey = "aws-secret-access-key"
	flagAWSSessionToken    = "aws-session-token"
	// Client
	flagAWSRetryMaxAttempts = "aws-retry-max-attempts"
	// TLS
	flagAWSInsecureSkipVerify = "aws-insecure-skip-verify"
	// Miscellaneous
	flagAWSS3Endpoint     = "aws-s3-endpoint"
	flagAWSS3UsePathStyle = "aws-s3-use-path-style"
	flagBucketKeyEnabled  = "aws-bucket-key-enabled"
)

// Sides of a synchronization.
// The AWS flags of a side are the AWS flags prefixed with the name of the side, e.g., source-aws-profile.
const (
	sideSource  = "source"
	sideReplica = "replica"
)

// Common Flags
const (
	flagConfig = "config"
	flagDebug  = "debug"
)

// List Flags
const (
	flagAll                   = "all"
	flagRecursive             = "recursive"
	flagFormat                = "format"
	flagTimeLayout            = "time-layout"
	flagTimeZone              = "time-zone"
	flagHumanReadableFileSize = "human-readable-file-size"
	flagMaxKeys               = "max-keys"
)

// List Defaults
const (
	DefaultFormat = "text"
)

// Sync Flags
const (
	flagInterval = "interval"
	flagOnce     = "once"
	flagExclude  = "exclude"
	flagLockPath = "lock-path"
	flagPartSize = "part-size"
)

// Sync Defaults
const (
	DefaultInterval = "60"
	DefaultPartSize = 1_048_576 * 100 // 100 MiB

	MinimumPartSize = 1_048_576 * 5 // 5 MiB
)

// Log Flags
const (
	flagLogDir             = "log-dir"
	flagLogFormat          = "log-format"
	flagLogPerm            = "log-perm"
	flagLogTimeLayout      = "log-time-layout"
	flagLogTimeZone        = "log-time-zone"
	flagLogClientSigning   = "log-client-signing"
	flagLogClientRequests  = "log-client-requests"
	flagLogClientResponses = "log-client-responses"
	flagLogClientRetries   = "log-client-retries"
)

// ConfigurationError is an invalid argument, flag, or environment variable detected before the synchronizer starts.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configurationError(format string, a ...interface{}) error {
	return &ConfigurationError{Err: fmt.Errorf(format, a...)}
}

func sideFlag(side string, flag string) string {
	return side + "-" + flag
}

// initAWSFlags initializes the AWS flags.
func initAWSFlags(flag *pflag.FlagSet) {
	// Profile
	flag.String(flagAWSProfile, "default", "AWS Profile")
	flag.String(flagAWSDefaultRegion, "", "AWS Default Region")
	flag.String(flagAWSRegion, "", "AWS Region (overrides default region)")
	// Credentials
	flag.String(flagAWSAccessKeyID, "", "AWS Access Key ID")
	flag.String(flagAWSSecretAccessKey, "", "AWS Secret Access Key")
	flag.String(flagAWSSessionToken, "", "AWS Session Token")
	// Client
	flag.Int(flagAWSRetryMaxAttempts, 5, "the maximum number attempts an AWS API client will call an operation that fails with a retryable error.")
	// TLS
	flag.Bool(flagAWSInsecureSkipVerify, false, "Skip verification of AWS TLS certificate")
	// Miscellaneous
	flag.String(flagAWSS3Endpoint, "", "AWS S3 Endpoint URL")
	flag.Bool(flagAWSS3UsePathStyle, false, "Use path-style addressing (default is to use virtual-host-style addressing)")
	flag.Bool(flagBucketKeyEnabled, false, "bucket key enabled")
}

// initAWSSideFlags initializes the AWS flags that override the AWS flags for one side.
func initAWSSideFlags(flag *pflag.FlagSet, side string) {
	flag.String(sideFlag(side, flagAWSProfile), "", fmt.Sprintf("AWS Profile for %s", side))
	flag.String(sideFlag(side, flagAWSRegion), "", fmt.Sprintf("AWS Region for %s", side))
	flag.String(sideFlag(side, flagAWSS3Endpoint), "", fmt.Sprintf("AWS S3 Endpoint URL for %s", side))
	flag.Bool(sideFlag(side, flagAWSS3UsePathStyle), false, fmt.Sprintf("Use path-style addressing (default is to use virtual-host-style addressing) for %s", side))
	flag.String(sideFlag(side, flagAWSAccessKeyID), "", fmt.Sprintf("AWS Access Key ID for %s", side))
	flag.String(sideFlag(side, flagAWSSecretAccessKey), "", fmt.Sprintf("AWS Secret Access Key for %s", side))
	flag.String(sideFlag(side, flagAWSSessionToken), "", fmt.Sprintf("AWS Session Token for %s", side))
}

func initCommonFlags(flag *pflag.FlagSet) {
	flag.BoolP(flagDebug, "d", false, "print debug messages")
	flag.String(flagConfig, "", "path to a configuration file with values for flags, e.g., config.yaml")
}

func initListFlags(flag *pflag.FlagSet) {
	flag.BoolP(flagAll, "a", false, "Include directory entries whose names begin with a dot (‘.’).")
	flag.StringP(flagFormat, "f", DefaultFormat, "output format.  Either jsonl or text.")
	flag.StringP(flagTimeLayout, "t", "Default", "the layout to use for file timestamps.  Use go layout format, or the name of a layout.  Use gomirror layouts to show all named layouts.")
	flag.StringP(flagTimeZone, "z", "Local", "the timezone to use for file timestamps")
	flag.Bool(flagHumanReadableFileSize, false, "display file sizes in human-readable format")
	flag.BoolP(flagRecursive, "r", false, "recursively list sub-directories breadth-first")
	flag.StringP(flagExclude, "e", "", "a colon-separated list of glob patterns to exclude, matched against the relative path or the name of each entry, e.g., *.tmp:build:docs/**/*.pdf")
	flag.Int32(flagMaxKeys, 0, "maximum number of keys in each page returned by S3 when reading a directory (0 is the service default)")
}

func initSyncFlags(flag *pflag.FlagSet) {
	flag.StringP(flagInterval, "i", DefaultInterval, "number of seconds between synchronization cycles (decimals allowed)")
	flag.Bool(flagOnce, false, "run a single synchronization cycle and exit")
	flag.StringP(flagExclude, "e", "", "a colon-separated list of glob patterns to exclude, matched against the relative path or the name of each entry, e.g., *.tmp:build:docs/**/*.pdf")
	flag.String(flagLockPath, "", fmt.Sprintf("path to the lock file that prevents concurrent synchronizers.  Defaults to %q in the log directory.", LockFileName))
	flag.Int(flagPartSize, DefaultPartSize, fmt.Sprintf("size of parts in bytes when transferring to S3 (minimum %d)", MinimumPartSize))
	flag.Int32(flagMaxKeys, 0, "maximum number of keys in each page returned by S3 when reading a directory (0 is the service default)")
	initAWSSideFlags(flag, sideSource)
	initAWSSideFlags(flag, sideReplica)
}

func initLogFlags(flag *pflag.FlagSet) {
	flag.String(flagLogDir, "-", fmt.Sprintf("directory for the log file %q, which is also echoed to stdout.  Use \"-\" to only log to stdout.", LogFileName))
	flag.String(flagLogFormat, log.FormatJSONL, "log format.  Either jsonl or text.")
	flag.String(flagLogPerm, "0600", "file permissions for log output file as unix file mode.")
	flag.String(flagLogTimeLayout, "RFC3339Nano", "the layout to use for log timestamps.  Use go layout format, or the name of a layout.")
	flag.String(flagLogTimeZone, "Local", "the timezone to use for log timestamps")
	flag.Bool(flagLogClientSigning, false, "log AWS client signature requests")
	flag.Bool(flagLogClientRequests, false, "log AWS client requests")
	flag.Bool(flagLogClientResponses, false, "log AWS client responses")
	flag.Bool(flagLogClientRetries, false, "log AWS client retries")
}

func initListCommandFlags(flag *pflag.FlagSet) {
	initCommonFlags(flag)
	initAWSFlags(flag)
	initListFlags(flag)
	initLogFlags(flag)
}

func initSyncCommandFlags(flag *pflag.FlagSet) {
	initCommonFlags(flag)
	initAWSFlags(flag)
	initSyncFlags(flag)
	initLogFlags(flag)
}

// loadDotEnv adds the variables in the .env file of the working directory to the environment, if the file exists.
// Variables already in the environment are not overwritten.
func loadDotEnv() error {
	if _, err := os.Stat(DotEnvFileName); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error checking for %q file: %w", DotEnvFileName, err)
	}
	if err := godotenv.Load(DotEnvFileName); err != nil {
		return fmt.Errorf("error loading %q file: %w", DotEnvFileName, err)
	}
	return nil
}

func initViper(cmd *cobra.Command) (*viper.Viper, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	v := viper.New()
	err := v.BindPFlags(cmd.Flags())
	if err != nil {
		return v, fmt.Errorf("error binding flag set to viper: %w", err)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv() // set environment variables to overwrite config
	if configFile := v.GetString(flagConfig); len(configFile) > 0 {
		configPath, err := homedir.Expand(configFile)
		if err != nil {
			return v, fmt.Errorf("error expanding path to config file %q: %w", configFile, err)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return v, fmt.Errorf("error reading config file %q: %w", configPath, err)
		}
	}
	return v, nil
}

// expandPath returns the absolute path for a local path or file:// URI, expanding a leading "~".
func expandPath(p string) (string, error) {
	p = strings.TrimPrefix(p, "file://")
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("error expanding path %q: %w", p, err)
	}
	absolutePath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("error creating absolute path for %q: %w", p, err)
	}
	return absolutePath, nil
}

func parseExclude(v *viper.Viper) (*mirror.Exclude, error) {
	patterns := []string{}
	if excludeString := v.GetString(flagExclude); len(excludeString) > 0 {
		patterns = strings.Split(excludeString, ":")
	}
	exclude, err := mirror.NewExclude(patterns)
	if err != nil {
		return nil, configurationError("%w", err)
	}
	return exclude, nil
}

// parseInterval parses a positive number of seconds.
func parseInterval(str string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, configurationError("interval %q is not a number of seconds", str)
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0, configurationError("interval %q must be a positive number of seconds", str)
	}
	interval := time.Duration(seconds * float64(time.Second))
	if interval <= 0 {
		return 0, configurationError("interval %q is too small", str)
	}
	return interval, nil
}

func checkLogConfig(v *viper.Viper, logDir string) error {
	if len(logDir) == 0 {
		return configurationError("log directory is missing")
	}
	logPerm := v.GetString(flagLogPerm)
	if len(logPerm) == 0 {
		return configurationError("log perm is missing")
	}
	if _, err := strconv.ParseUint(logPerm, 8, 32); err != nil {
		return configurationError("invalid format for log perm: %s", logPerm)
	}
	if logFormat := v.GetString(flagLogFormat); logFormat != log.FormatJSONL && logFormat != log.FormatText {
		return configurationError("unknown log format %q, expecting %q or %q", logFormat, log.FormatJSONL, log.FormatText)
	}
	if _, err := ts.ParseLocation(v.GetString(flagLogTimeZone)); err != nil {
		return configurationError("error parsing time zone location %q: %w", v.GetString(flagLogTimeZone), err)
	}
	if logDir == "-" || logDir == os.DevNull {
		return nil
	}
	logPath, err := expandPath(logDir)
	if err != nil {
		return configurationError("%w", err)
	}
	fi, err := os.Stat(logPath)
	if err != nil {
		return configurationError("log directory %q does not exist or contains a typo", logDir)
	}
	if !fi.IsDir() {
		return configurationError("log directory %q is not a directory", logDir)
	}
	return nil
}

func checkListConfig(v *viper.Viper, args []string) error {
	if len(args) > 1 {
		return configurationError("expecting at most 1 positional argument for the uri, but found %d arguments", len(args))
	}
	if format := v.GetString(flagFormat); format != "text" && format != "jsonl" {
		return configurationError("unknown format %q, expecting \"text\" or \"jsonl\"", format)
	}
	if _, err := ts.ParseLocation(v.GetString(flagTimeZone)); err != nil {
		return configurationError("error parsing time zone location %q: %w", v.GetString(flagTimeZone), err)
	}
	if err := checkLogConfig(v, v.GetString(flagLogDir)); err != nil {
		return err
	}
	return nil
}

// syncArguments returns the source, replica, interval, and log directory.
// The interval and log directory are read from the flags, unless they are given as the third and fourth positional arguments.
func syncArguments(v *viper.Viper, args []string) (string, string, string, string, error) {
	switch len(args) {
	case 2:
		return args[0], args[1], v.GetString(flagInterval), v.GetString(flagLogDir), nil
	case 4:
		return args[0], args[1], args[2], args[3], nil
	}
	return "", "", "", "", configurationError(
		"expecting 2 positional arguments for source and replica, or 4 positional arguments for source, replica, interval, and log directory, but found %d arguments",
		len(args))
}

// checkLocalDirectory returns the absolute path of a local directory argument.
func checkLocalDirectory(side string, uri string, cwd string) (string, error) {
	p, err := expandPath(uri)
	if err != nil {
		return "", configurationError("%w", err)
	}
	fi, err := os.Stat(p)
	if err != nil {
		return "", configurationError("%s directory %q does not exist or contains a typo", side, uri)
	}
	if !fi.IsDir() {
		return "", configurationError("%s %q is not a directory", side, uri)
	}
	if p == filepath.Clean(cwd) {
		return "", configurationError("%s directory %q cannot be the working directory", side, uri)
	}
	return p, nil
}

func sideString(v *viper.Viper, side string, flag string) string {
	if str := v.GetString(sideFlag(side, flag)); len(str) > 0 {
		return str
	}
	return v.GetString(flag)
}

type SyncConfig struct {
	// Source is an absolute path or an s3:// URI.
	Source string
	// Replica is an absolute path or an s3:// URI.
	Replica  string
	Interval time.Duration
	LogDir   string
	Exclude  *mirror.Exclude
	Once     bool
}

func checkSyncConfig(v *viper.Viper, args []string, cwd string) (*SyncConfig, error) {
	sourceURI, replicaURI, intervalString, logDir, err := syncArguments(v, args)
	if err != nil {
		return nil, err
	}

	interval, err := parseInterval(intervalString)
	if err != nil {
		return nil, err
	}

	syncConfig := &SyncConfig{
		Interval: interval,
		LogDir:   logDir,
		Once:     v.GetBool(flagOnce),
	}

	for _, side := range []struct {
		name string
		uri  string
		dst  *string
	}{
		{name: sideSource, uri: sourceURI, dst: &syncConfig.Source},
		{name: sideReplica, uri: replicaURI, dst: &syncConfig.Replica},
	} {
		if s3fs.IsURI(side.uri) {
			if _, _, err := s3fs.ParseURI(side.uri); err != nil {
				return nil, configurationError("%w", err)
			}
			*side.dst = side.uri
			continue
		}
		p, err := checkLocalDirectory(side.name, side.uri, cwd)
		if err != nil {
			return nil, err
		}
		*side.dst = p
	}

	sourceIsS3 := s3fs.IsURI(syncConfig.Source)
	replicaIsS3 := s3fs.IsURI(syncConfig.Replica)
	if sourceIsS3 && replicaIsS3 {
		if sideString(v, sideSource, flagAWSS3Endpoint) == sideString(v, sideReplica, flagAWSS3Endpoint) {
			if err := s3fs.Check(syncConfig.Source[len(s3fs.Scheme):], syncConfig.Replica[len(s3fs.Scheme):]); err != nil {
				return nil, configurationError("%w", err)
			}
		}
	} else if !sourceIsS3 && !replicaIsS3 {
		if err := lfs.Check(syncConfig.Source, syncConfig.Replica); err != nil {
			return nil, configurationError("%w", err)
		}
	}

	exclude, err := parseExclude(v)
	if err != nil {
		return nil, err
	}
	syncConfig.Exclude = exclude

	if partSize := v.GetInt(flagPartSize); partSize < MinimumPartSize {
		return nil, configurationError("part size %d is less than the minimum part size %d", partSize, MinimumPartSize)
	}

	return syncConfig, nil
}

type InitS3ClientInput struct {
	Profile string
	Region  string
	// AWS Client
	Endpoint           string
	InsecureSkipVerify bool
	RetryMaxAttempts   int
	UsePathStyle       bool
	// AWS Credentials
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// Client Log Mode
	Logger             fs.Logger
	LogClientSigning   bool
	LogClientRetries   bool
	LogClientRequests  bool
	LogClientResponses bool
}

// newInitS3ClientInput returns the client configuration for a side, falling back to the AWS flags shared by both sides.
func newInitS3ClientInput(ctx context.Context, v *viper.Viper, side string, logger fs.Logger) *InitS3ClientInput {
	profile := sideString(v, side, flagAWSProfile)
	if len(profile) == 0 {
		profile = "default"
	}

	region := sideString(v, side, flagAWSRegion)
	if len(region) == 0 {
		region = v.GetString(flagAWSDefaultRegion)
	}
	// if neither region nor default region is specified
	if len(region) == 0 {
		sharedConfig, loadSharedConfigProfileError := config.LoadSharedConfigProfile(ctx, profile)
		if loadSharedConfigProfileError == nil {
			region = sharedConfig.Region
		}
	}

	return &InitS3ClientInput{
		Profile: profile,
		Region:  region,
		// AWS Client
		Endpoint:           sideString(v, side, flagAWSS3Endpoint),
		InsecureSkipVerify: v.GetBool(flagAWSInsecureSkipVerify),
		RetryMaxAttempts:   v.GetInt(flagAWSRetryMaxAttempts),
		UsePathStyle:       v.GetBool(sideFlag(side, flagAWSS3UsePathStyle)) || v.GetBool(flagAWSS3UsePathStyle),
		// AWS Credentials
		AccessKeyID:     sideString(v, side, flagAWSAccessKeyID),
		SecretAccessKey: sideString(v, side, flagAWSSecretAccessKey),
		SessionToken:    sideString(v, side, flagAWSSessionToken),
		// Client Log Mode
		Logger:             logger,
		LogClientSigning:   v.GetBool(flagLogClientSigning),
		LogClientRetries:   v.GetBool(flagLogClientRetries),
		LogClientRequests:  v.GetBool(flagLogClientRequests),
		LogClientResponses: v.GetBool(flagLogClientResponses),
	}
}

func InitS3Client(ctx context.Context, input *InitS3ClientInput) *s3.Client {
	clientLogMode := aws.ClientLogMode(0)
	if input.LogClientSigning {
		clientLogMode |= aws.LogSigning
	}
	if input.LogClientRetries {
		clientLogMode |= aws.LogRetries
	}
	if input.LogClientRequests {
		clientLogMode |= aws.LogRequest
	}
	if input.LogClientResponses {
		clientLogMode |= aws.LogResponse
	}

	c := aws.Config{
		ClientLogMode:    clientLogMode,
		RetryMaxAttempts: input.RetryMaxAttempts,
		Region:           input.Region,
	}

	if input.Logger != nil {
		c.Logger = log.NewClientLogger(input.Logger)
	}

	if len(input.AccessKeyID) > 0 && len(input.SecretAccessKey) > 0 {
		c.Credentials = credentials.NewStaticCredentialsProvider(
			input.AccessKeyID,
			input.SecretAccessKey,
			input.SessionToken)
	} else {
		sharedConfig, err := config.LoadSharedConfigProfile(ctx, input.Profile)
		if err == nil {
			c.Credentials = credentials.NewStaticCredentialsProvider(
				sharedConfig.Credentials.AccessKeyID,
				sharedConfig.Credentials.SecretAccessKey,
				sharedConfig.Credentials.SessionToken)
		}
	}

	if input.InsecureSkipVerify {
		c.HTTPClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true,
				},
			},
		}
	}

	client := s3.NewFromConfig(c, func(o *s3.Options) {
		o.UsePathStyle = input.UsePathStyle
		if len(input.Endpoint) > 0 {
			o.BaseEndpoint = aws.String(input.Endpoint)
		}
	})

	return client
}

type InitFileSystemInput struct {
	URI string
	// ReadOnly rejects every mutation of a local file system.
	ReadOnly         bool
	S3Client         *InitS3ClientInput
	BucketKeyEnabled bool
	PartSize         int
	MaxKeys          int32
}

// InitFileSystem returns the file system for the URI and the name of its root.
func InitFileSystem(ctx context.Context, input *InitFileSystemInput) (fs.FileSystem, string, error) {
	if s3fs.IsURI(input.URI) {
		bucket, prefix, err := s3fs.ParseURI(input.URI)
		if err != nil {
			return nil, "", err
		}
		fileSystem := s3fs.NewS3FileSystem(&s3fs.S3FileSystemInput{
			Client:           InitS3Client(ctx, input.S3Client),
			Bucket:           bucket,
			Prefix:           prefix,
			BucketKeyEnabled: input.BucketKeyEnabled,
			PartSize:         input.PartSize,
			MaxKeys:          input.MaxKeys,
		})
		return fileSystem, fileSystem.Root(), nil
	}

	rootPath, err := expandPath(input.URI)
	if err != nil {
		return nil, "", err
	}

	if input.ReadOnly {
		fileSystem := lfs.NewReadOnlyLocalSystem(rootPath)
		return fileSystem, fileSystem.Root(), nil
	}

	fileSystem := lfs.NewLocalFileSystem(rootPath)
	return fileSystem, fileSystem.Root(), nil
}

type InitLoggerInput struct {
	Dir      string
	Perm     string
	Format   string
	Layout   ts.Layout
	Location *time.Location
	Debug    bool
}

// initLogger returns a logger writing to the log file in the log directory and to stdout.
// The returned file is nil unless a log file was opened.
func initLogger(input *InitLoggerInput) (*log.SimpleLogger, *os.File, error) {
	var w io.Writer
	var logFile *os.File

	switch input.Dir {
	case os.DevNull:
		w = io.Discard
	case "-":
		w = os.Stdout
	default:
		dir, err := expandPath(input.Dir)
		if err != nil {
			return nil, nil, err
		}

		fileMode := os.FileMode(0600)
		if len(input.Perm) > 0 {
			fm, err := strconv.ParseUint(input.Perm, 8, 32)
			if err != nil {
				return nil, nil, fmt.Errorf("error parsing file permissions for log file from %q", input.Perm)
			}
			fileMode = os.FileMode(fm)
		}

		logPath := filepath.Join(dir, LogFileName)
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, fileMode)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening log file %q: %w", logPath, err)
		}
		logFile = f
		w = io.MultiWriter(f, os.Stdout)
	}

	logger, err := log.NewSimpleLoggerWithInput(&log.SimpleLoggerInput{
		Writer:   w,
		Format:   input.Format,
		Layout:   input.Layout,
		Location: input.Location,
		Debug:    input.Debug,
	})
	if err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, nil, err
	}

	return logger, logFile, nil
}

func initLoggerFromViper(v *viper.Viper, logDir string) (*log.SimpleLogger, *os.File, error) {
	location, err := ts.ParseLocation(v.GetString(flagLogTimeZone))
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing time zone location %q: %w", v.GetString(flagLogTimeZone), err)
	}
	return initLogger(&InitLoggerInput{
		Dir:      logDir,
		Perm:     v.GetString(flagLogPerm),
		Format:   v.GetString(flagLogFormat),
		Layout:   ts.ParseLayout(v.GetString(flagLogTimeLayout)),
		Location: location,
		Debug:    v.GetBool(flagDebug),
	})
}

// lockPath returns the path to the lock file, or an empty string if no lock should be taken.
func lockPath(v *viper.Viper, logDir string) (string, error) {
	if p := v.GetString(flagLockPath); len(p) > 0 {
		return expandPath(p)
	}
	if logDir == "-" || logDir == os.DevNull {
		return "", nil
	}
	dir, err := expandPath(logDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LockFileName), nil
}

// acquireLock locks the file at the path, failing if another process holds the lock.
func acquireLock(p string) (*flock.Flock, error) {
	fileLock := flock.New(p)
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("error locking %q: %w", p, err)
	}
	if !locked {
		return nil, configurationError("lock file %q is held by another synchronizer", p)
	}
	return fileLock, nil
}

func releaseLock(fileLock *flock.Flock) error {
	if !fileLock.Locked() {
		return nil
	}
	if err := fileLock.Unlock(); err != nil {
		return fmt.Errorf("error unlocking %q: %w", fileLock.Path(), err)
	}
	return os.Remove(fileLock.Path())
}

type listEntry struct {
	// Name is the slash-separated path relative to the listed root.
	Name  string
	Entry fs.DirectoryEntry
}

type listEntriesInput struct {
	FileSystem fs.FileSystem
	Root       string
	Recursive  bool
	All        bool
	Exclude    *mirror.Exclude
}

// listEntries reads the root directory, and every sub-directory breadth-first if recursive.
func listEntries(ctx context.Context, input *listEntriesInput) ([]listEntry, error) {
	entries := []listEntry{}
	queue := []string{""}
	for len(queue) > 0 {
		directory := queue[0]
		queue = queue[1:]
		name := input.Root
		if len(directory) > 0 {
			name = input.FileSystem.Join(input.Root, directory)
		}
		directoryEntries, err := input.FileSystem.ReadDir(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("error reading directory %q: %w", name, err)
		}
		for _, de := range directoryEntries {
			if !input.All && strings.HasPrefix(de.Name(), ".") {
				continue
			}
			relativePath := path.Join(directory, de.Name())
			if input.Exclude.Match(relativePath) {
				continue
			}
			entries = append(entries, listEntry{Name: relativePath, Entry: de})
			if input.Recursive && de.IsDir() {
				queue = append(queue, relativePath)
			}
		}
	}
	return entries, nil
}

type writeEntriesInput struct {
	Format                string
	HumanReadableFileSize bool
	Layout                ts.Layout
	Location              *time.Location
}

func formatSize(size int64, humanReadable bool) string {
	if humanReadable {
		return humanize.Bytes(uint64(size))
	}
	return strconv.FormatInt(size, 10)
}

// writeEntries writes one line per entry, with a "d" marker for directories and "-" for files.
func writeEntries(w io.Writer, entries []listEntry, input *writeEntriesInput) error {
	switch input.Format {
	case "text":
		width := 0
		for _, e := range entries {
			if n := len(formatSize(e.Entry.Size(), input.HumanReadableFileSize)); n > width {
				width = n
			}
		}
		for _, e := range entries {
			marker := "-"
			if e.Entry.IsDir() {
				marker = "d"
			}
			_, err := fmt.Fprintf(w, "%s %*s %s %s\n",
				marker,
				width,
				formatSize(e.Entry.Size(), input.HumanReadableFileSize),
				input.Layout.Format(e.Entry.ModTime().In(input.Location)),
				e.Name)
			if err != nil {
				return err
			}
		}
	case "jsonl":
		encoder := json.NewEncoder(w)
		for _, e := range entries {
			m := map[string]interface{}{
				"name":     e.Name,
				"dir":      e.Entry.IsDir(),
				"mod_time": input.Layout.Format(e.Entry.ModTime().In(input.Location)),
			}
			if input.HumanReadableFileSize {
				m["size"] = formatSize(e.Entry.Size(), true)
			} else {
				m["size"] = e.Entry.Size()
			}
			if err := encoder.Encode(m); err != nil {
				return fmt.Errorf("error encoding directory entry %q: %w", e.Name, err)
			}
		}
	default:
		return fmt.Errorf("unknown format %q", input.Format)
	}
	return nil
}

func main() {
	rootCommand := &cobra.Command{
		Use:                   `gomirror [flags]`,
		DisableFlagsInUseLine: true,
		Short: strings.Join([]string{
			"gomirror is a simple command line program for periodically mirroring a source directory into a replica directory.",
			"gomirror schemes returns the currently supported schemes.",
			"Local directories are specified using the \"file://\" scheme or a path without a scheme.",
			"S3 directories are specified using the \"s3://\" scheme.",
		}, "\n"),
	}

	layoutsCommand := &cobra.Command{
		Use:                   `layouts`,
		DisableFlagsInUseLine: true,
		Short:                 "show supported timestamp layouts",
		SilenceErrors:         true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range ts.Names() {
				fmt.Printf("%s: %s\n", name, ts.NamedLayouts[name])
			}
			return nil
		},
	}

	listCommand := &cobra.Command{
		Use:                   "list URI",
		DisableFlagsInUseLine: true,
		Short:                 "list",
		Long:                  "list the directory at the URI",
		SilenceErrors:         true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {

			ctx := cmd.Context()

			v, err := initViper(cmd)
			if err != nil {
				return fmt.Errorf("error initializing viper: %w", err)
			}

			if errConfig := checkListConfig(v, args); errConfig != nil {
				return errConfig
			}

			debug := v.GetBool(flagDebug)

			logger, logFile, err := initLoggerFromViper(v, v.GetString(flagLogDir))
			if err != nil {
				return fmt.Errorf("error initializing logger: %w", err)
			}
			if logFile != nil {
				defer logFile.Close()
			}

			uri := "."
			if len(args) == 1 {
				uri = args[0]
			}

			exclude, err := parseExclude(v)
			if err != nil {
				return err
			}

			// create file system
			if debug {
				fields := map[string]interface{}{
					"uri": uri,
				}
				if e := v.GetString(flagAWSS3Endpoint); len(e) > 0 {
					fields["endpoint"] = e
				}
				_ = logger.Log("Creating filesystem", fields)
			}

			fileSystem, root, err := InitFileSystem(ctx, &InitFileSystemInput{
				URI:      uri,
				ReadOnly: true,
				S3Client: newInitS3ClientInput(ctx, v, sideSource, logger),
				MaxKeys:  v.GetInt32(flagMaxKeys),
			})
			if err != nil {
				return fmt.Errorf("error creating file system for %q: %w", uri, err)
			}

			//
			// List
			//

			entries, err := listEntries(ctx, &listEntriesInput{
				FileSystem: fileSystem,
				Root:       root,
				Recursive:  v.GetBool(flagRecursive),
				All:        v.GetBool(flagAll),
				Exclude:    exclude,
			})
			if err != nil {
				_ = logger.Error("Error listing", map[string]interface{}{
					"uri": uri,
					"err": err.Error(),
				})
				return err
			}

			timeZone, err := ts.ParseLocation(v.GetString(flagTimeZone))
			if err != nil {
				return fmt.Errorf("error parsing time zone location %q: %w", v.GetString(flagTimeZone), err)
			}

			return writeEntries(os.Stdout, entries, &writeEntriesInput{
				Format:                v.GetString(flagFormat),
				HumanReadableFileSize: v.GetBool(flagHumanReadableFileSize),
				Layout:                ts.ParseLayout(v.GetString(flagTimeLayout)),
				Location:              timeZone,
			})
		},
	}
	initListCommandFlags(listCommand.Flags())

	syncCommand := &cobra.Command{
		Use:                   "sync SOURCE REPLICA [INTERVAL LOG_DIR]",
		DisableFlagsInUseLine: true,
		Short:                 "sync",
		Long:                  "periodically mirror the source directory into the replica directory until interrupted",
		SilenceErrors:         true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {

			v, err := initViper(cmd)
			if err != nil {
				return fmt.Errorf("error initializing viper: %w", err)
			}

			_, _, _, logDir, err := syncArguments(v, args)
			if err != nil {
				return err
			}

			if errConfig := checkLogConfig(v, logDir); errConfig != nil {
				return errConfig
			}

			debug := v.GetBool(flagDebug)

			logger, logFile, err := initLoggerFromViper(v, logDir)
			if err != nil {
				return fmt.Errorf("error initializing logger: %w", err)
			}
			if logFile != nil {
				defer logFile.Close()
			}

			cwd, err := os.Getwd()
			if err != nil {
				_ = logger.Error("Error getting current working directory", map[string]interface{}{
					"err": err.Error(),
				})
				return err
			}

			syncConfig, err := checkSyncConfig(v, args, cwd)
			if err != nil {
				_ = logger.Error("Invalid configuration", map[string]interface{}{
					"err": err.Error(),
				})
				return err
			}

			p, err := lockPath(v, logDir)
			if err != nil {
				return err
			}
			if len(p) > 0 {
				fileLock, err := acquireLock(p)
				if err != nil {
					_ = logger.Error("Error acquiring lock", map[string]interface{}{
						"lock": p,
						"err":  err.Error(),
					})
					return err
				}
				defer func() {
					if err := releaseLock(fileLock); err != nil {
						_ = logger.Error("Error releasing lock", map[string]interface{}{
							"lock": p,
							"err":  err.Error(),
						})
					}
				}()
			}

			if debug {
				_ = logger.Log("Configuration", map[string]interface{}{
					"source":                 syncConfig.Source,
					"replica":                syncConfig.Replica,
					"interval":               syncConfig.Interval.String(),
					"exclude":                syncConfig.Exclude.Patterns(),
					"once":                   syncConfig.Once,
					"aws_retry_max_attempts": v.GetInt(flagAWSRetryMaxAttempts),
					"bucket_key_enabled":     v.GetBool(flagBucketKeyEnabled),
					"part_size":              v.GetInt(flagPartSize),
					"lock":                   p,
				})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sourceFileSystem, sourceRoot, err := InitFileSystem(ctx, &InitFileSystemInput{
				URI:      syncConfig.Source,
				ReadOnly: true,
				S3Client: newInitS3ClientInput(ctx, v, sideSource, logger),
				MaxKeys:  v.GetInt32(flagMaxKeys),
			})
			if err != nil {
				return fmt.Errorf("error creating source file system: %w", err)
			}

			replicaFileSystem, replicaRoot, err := InitFileSystem(ctx, &InitFileSystemInput{
				URI:              syncConfig.Replica,
				ReadOnly:         false,
				S3Client:         newInitS3ClientInput(ctx, v, sideReplica, logger),
				BucketKeyEnabled: v.GetBool(flagBucketKeyEnabled),
				PartSize:         v.GetInt(flagPartSize),
				MaxKeys:          v.GetInt32(flagMaxKeys),
			})
			if err != nil {
				return fmt.Errorf("error creating replica file system: %w", err)
			}

			loop, err := mirror.NewLoop(&mirror.LoopInput{
				SourceFileSystem:  sourceFileSystem,
				SourceRoot:        sourceRoot,
				ReplicaFileSystem: replicaFileSystem,
				ReplicaRoot:       replicaRoot,
				Interval:          syncConfig.Interval,
				Exclude:           syncConfig.Exclude,
				Logger:            logger,
				Debug:             debug,
			})
			if err != nil {
				return fmt.Errorf("error creating synchronizer: %w", err)
			}

			if syncConfig.Once {
				if err := loop.RunOnce(ctx); err != nil {
					return fmt.Errorf("error synchronizing %q to %q: %w", syncConfig.Source, syncConfig.Replica, err)
				}
				return nil
			}

			eg, egCtx := errgroup.WithContext(ctx)

			eg.Go(func() error {
				return loop.Run(egCtx)
			})

			eg.Go(func() error {
				<-egCtx.Done()
				if debug {
					_ = logger.Log("Received termination signal", map[string]interface{}{
						"source":  syncConfig.Source,
						"replica": syncConfig.Replica,
					})
				}
				return nil
			})

			return eg.Wait()
		},
	}
	initSyncCommandFlags(syncCommand.Flags())

	schemesCommand := &cobra.Command{
		Use:                   `schemes`,
		DisableFlagsInUseLine: true,
		Short:                 "show supported schemes",
		SilenceErrors:         true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("file")
			fmt.Println("s3")
			return nil
		},
	}

	versionCommand := &cobra.Command{
		Use:                   `version`,
		DisableFlagsInUseLine: true,
		Short:                 "show version",
		SilenceErrors:         true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(GoMirrorVersion)
			return nil
		},
	}

	rootCommand.AddCommand(layoutsCommand, listCommand, syncCommand, schemesCommand, versionCommand)

	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gomirror: "+err.Error())
		fmt.Fprintln(os.Stderr, "Try \"gomirror --help\" for more information.")
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configBaseName = ".pascalfix"
	envPrefix      = "PASCALFIX"

	serializerKey = "serializer"
	formatKey     = "format"
	parallelKey   = "parallel"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultSerializer    = "newtonsoft"
	defaultFormat        = "source"
	defaultParallel      = 0
	defaultLogLevel      = "warn"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(serializerKey, defaultSerializer)
	viper.SetDefault(formatKey, defaultFormat)
	viper.SetDefault(parallelKey, defaultParallel)

	viper.SetDefault(logFilenameKey, "")
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// readConfig loads .pascalfix.yaml from the working directory or, failing
// that, from the repository root. A missing file is not an error.
func readConfig() error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	viper.AddConfigPath(wd)
	if root := findRepoRoot(wd); root != wd {
		viper.AddConfigPath(root)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func bindFlagToConfig(flag *pflag.Flag, key string) {
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels, e.g. -4 for debug.
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// newLogger builds the CLI logger. It writes to stderr unless log.filename
// is set, in which case the file is rotated by lumberjack. verbose forces
// debug level. The returned closer releases the log file.
func newLogger(stderr io.Writer, verbose bool) (*slog.Logger, io.Closer) {
	level := parseSlogLevel(viper.GetString(logLevelKey), slog.LevelWarn)
	if verbose {
		level = slog.LevelDebug
	}

	w, closer := stderr, io.Closer(nopCloser{})
	if path := strings.TrimSpace(viper.GetString(logFilenameKey)); path != "" {
		lj := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    viper.GetInt(logMaxSizeKey),
			MaxBackups: viper.GetInt(logMaxBackupsKey),
			MaxAge:     viper.GetInt(logMaxAgeKey),
			Compress:   viper.GetBool(logCompressKey),
		}
		w, closer = lj, lj
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: verbose,
		Level:     level,
	})), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

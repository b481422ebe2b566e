package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

var configFilePath = flag.String("config_file", "", "Path to an optional .txtpb configuration file.")

// parseConfig parses a txtpb document against the ttlcache.Config schema.
func parseConfig(configBytes []byte) (protoreflect.Message, error) {
	md, err := configSchema()
	if err != nil {
		return nil, err
	}
	conf := dynamicpb.NewMessage(md)
	if err := prototext.Unmarshal(configBytes, conf); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return conf, nil
}

// shadowValue mirrors a registered flag without ever writing to it.
type shadowValue struct{ flag.Value }

func (shadowValue) Set(string) error { return nil }

func (v shadowValue) IsBoolFlag() bool {
	boolFlag, ok := v.Value.(interface{ IsBoolFlag() bool })
	return ok && boolFlag.IsBoolFlag()
}

// commandLineFlags returns the registered flags present in `args`. flag.Visit can't tell them apart from flags
// assigned with flag.Set, so the arguments are parsed again into a shadow set.
func commandLineFlags(args []string) map[ /*flagName*/ string]bool {
	shadow := flag.NewFlagSet("command-line", flag.ContinueOnError)
	shadow.SetOutput(io.Discard)
	flag.VisitAll(func(f *flag.Flag) { shadow.Var(shadowValue{f.Value}, f.Name, f.Usage) })
	_ = shadow.Parse(args) // flag.Parse already reported malformed arguments.

	explicit := make(map[string]bool)
	shadow.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	return explicit
}

// InitFlags parses the command line and then fills the flags from the config file specified by -config_file.
// It should be called after defining all flags and before using them. Flags given on the command line win over the
// config file. Config problems are logged and the affected flags keep their values.
func InitFlags() {
	flag.Parse()

	if *configFilePath == "" {
		slog.Info("Config file not specified. Skipping config initialization.")
		return
	}

	configBytes, err := os.ReadFile(*configFilePath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("Config file does not exist.", "path", *configFilePath, "error", err)
		return
	}
	if err != nil { // If the config file cannot be read, we skip loading and use default flag values.
		slog.Error("Failed to read config file.", "path", *configFilePath, "error", err)
		return
	}

	conf, err := parseConfig(configBytes)
	if err != nil {
		slog.Error("Failed to parse config file.", "path", *configFilePath, "error", err)
		return
	}
	if err := setConfigFlags(conf, commandLineFlags(os.Args[1:])); err != nil {
		slog.Error("Failed to set flags from config file.", "path", *configFilePath, "error", err)
		return
	}
	slog.Debug("Applied config file.", "path", *configFilePath)
}

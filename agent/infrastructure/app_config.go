package infrastructure

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	agentDomain "github.com/geobeacon/geobeacon/agent/domain"
)

// Telemetry sink selection.
const (
	StoreDynamo StoreKind = "dynamo"
	StoreMemory StoreKind = "memory"
)

// StoreKind selects which telemetry sink the agent publishes to.
type StoreKind string

// Location source selection.
const (
	SourceGpsd SourceKind = "gpsd"
	SourceSim  SourceKind = "sim"
)

// SourceKind selects which location source the agent samples from.
type SourceKind string

// AppConfig holds all validated configuration parameters for the agent.
type AppConfig struct {
	Cadence         agentDomain.Cadence
	FallbackCadence agentDomain.Cadence
	SourceAddress   agentDomain.SourceAddress
	ControlAddress  agentDomain.BindAddress
	StateDir        agentDomain.StateDir
	UnitDir         agentDomain.StateDir
	TableName       agentDomain.TableName
	Store           StoreKind
	Source          SourceKind
	Once            bool
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// GetFromCommandLineParameters parses command-line flags and returns validated
// agent configuration. Backend settings may also come from the environment
// (optionally via a .env file); flags take precedence through their defaults.
func GetFromCommandLineParameters() (*AppConfig, error) {
	// A missing .env file is fine, the environment alone is enough.
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	rawCadence := flag.Duration("cadence", 15*time.Second, "interval between foreground report cycles")
	rawFallbackCadence := flag.Duration("fallback-cadence", 15*time.Minute, "cadence of the durable fallback schedule")
	rawSourceAddress := flag.String("source-address", envOrDefault("GEOBEACON_GPSD", "127.0.0.1:2947"), "address of the gpsd positioning service")
	rawSource := flag.String("source", envOrDefault("GEOBEACON_SOURCE", string(SourceGpsd)), "location source: gpsd or sim")
	rawStore := flag.String("store", envOrDefault("GEOBEACON_STORE", string(StoreDynamo)), "telemetry store: dynamo or memory")
	rawTable := flag.String("table", envOrDefault("GEOBEACON_TABLE", "locations"), "document table holding one record per device")
	rawStateDir := flag.String("state-dir", envOrDefault("GEOBEACON_STATE_DIR", filepath.Join(home, ".local", "state", "geobeacon")), "directory for credential and status files")
	rawUnitDir := flag.String("unit-dir", filepath.Join(home, ".config", "systemd", "user"), "systemd user unit directory for the fallback schedule")
	rawControlAddress := flag.String("control-address", "127.0.0.1:8090", "bind address of the control server")
	once := flag.Bool("once", false, "run a single report cycle and exit")

	flag.Parse()

	cadence, err := agentDomain.NewCadence(*rawCadence)
	if err != nil {
		return nil, err
	}

	fallbackCadence, err := agentDomain.NewCadence(*rawFallbackCadence)
	if err != nil {
		return nil, err
	}

	sourceAddress, err := agentDomain.NewSourceAddress(*rawSourceAddress)
	if err != nil {
		return nil, err
	}

	controlAddress, err := agentDomain.NewBindAddress(*rawControlAddress)
	if err != nil {
		return nil, err
	}

	stateDir, err := agentDomain.NewStateDir(*rawStateDir)
	if err != nil {
		return nil, err
	}

	unitDir, err := agentDomain.NewStateDir(*rawUnitDir)
	if err != nil {
		return nil, err
	}

	tableName, err := agentDomain.NewTableName(*rawTable)
	if err != nil {
		return nil, err
	}

	store := StoreKind(*rawStore)
	if store != StoreDynamo && store != StoreMemory {
		return nil, fmt.Errorf("unknown store kind: %s", store)
	}

	source := SourceKind(*rawSource)
	if source != SourceGpsd && source != SourceSim {
		return nil, fmt.Errorf("unknown source kind: %s", source)
	}

	config := &AppConfig{
		Cadence:         cadence,
		FallbackCadence: fallbackCadence,
		SourceAddress:   sourceAddress,
		ControlAddress:  controlAddress,
		StateDir:        stateDir,
		UnitDir:         unitDir,
		TableName:       tableName,
		Store:           store,
		Source:          source,
		Once:            *once,
	}

	return config, nil
}

// Agent continuously determines the device position and publishes it to a
// remote document store, one merge-upserted record per device identity.
//
// Two independent schedules drive the same report cycle: an in-process
// repeating timer with a short cadence, and a durable host-level timer with a
// coarse cadence that re-invokes this binary with -once even when the daemon
// process has been killed.
//
// Usage example: agent -cadence 15s -fallback-cadence 15m -store dynamo -source gpsd
//
// Flags:
//
//	-cadence: interval between foreground report cycles
//	-fallback-cadence: cadence of the durable fallback schedule
//	-source: location source, gpsd or sim
//	-source-address: address of the gpsd positioning service
//	-store: telemetry store, dynamo or memory
//	-table: document table holding one record per device
//	-once: run a single report cycle and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	agentDomain "github.com/geobeacon/geobeacon/agent/domain"
	agentInfrastructure "github.com/geobeacon/geobeacon/agent/infrastructure"
)

const (
	notificationChannelID = "geobeacon.presence"
	serviceNotificationID = 1
	fallbackTaskID        = "periodic-report"
	fallbackUniqueName    = "geobeacon-report"
)

func endWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
	flag.Usage()
	os.Exit(1)
}

// buildPipeline returns the bootstrap that assembles a fresh
// identity-to-location-to-sink cycle. Everything, including the AWS session, is
// established inside the scheduler's own context: the fallback schedule
// invokes this in a brand-new process with no inherited state.
func buildPipeline(config *agentInfrastructure.AppConfig, logger agentDomain.Logger) agentDomain.PipelineBootstrap {
	return func(ctx context.Context) (*agentDomain.ReportCycle, error) {
		identity := agentInfrastructure.NewFileCredentialStore(config.StateDir, logger)

		var source agentDomain.LocationSource
		switch config.Source {
		case agentInfrastructure.SourceSim:
			source = agentInfrastructure.NewSimSource(37.0, -122.0)
		default:
			source = agentInfrastructure.NewGpsdSource(config.SourceAddress, logger)
		}

		var sink agentDomain.TelemetrySink
		switch config.Store {
		case agentInfrastructure.StoreMemory:
			sink = agentInfrastructure.NewMemoryStore(logger)
		default:
			awsConfig, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, fmt.Errorf("loading AWS configuration: %w", err)
			}
			sink = agentInfrastructure.NewDynamoStore(dynamodb.NewFromConfig(awsConfig), config.TableName, logger)
		}

		return agentDomain.NewReportCycle(identity, source, sink, logger), nil
	}
}

// runOnce is the fallback schedule's entrypoint: full re-initialization, one
// report cycle, outcome reported to the host scheduler via the exit code.
func runOnce(ctx context.Context, config *agentInfrastructure.AppConfig, logger agentDomain.Logger) error {
	cycle, err := buildPipeline(config, logger)(ctx)
	if err != nil {
		return err
	}
	return cycle.Run(ctx)
}

// onceCommandLine builds the ExecStart line for the fallback schedule. The
// executable and state directory are quoted: systemd splits an unquoted
// ExecStart on whitespace, so a path containing spaces would break the unit.
func onceCommandLine(executable string, config *agentInfrastructure.AppConfig) string {
	return fmt.Sprintf("%s -once -source %s -source-address %s -store %s -table %s -state-dir %s",
		strconv.Quote(executable), config.Source, config.SourceAddress, config.Store, config.TableName,
		strconv.Quote(string(config.StateDir)))
}

func main() {
	ctx, finish := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer finish()

	config, err := agentInfrastructure.GetFromCommandLineParameters()
	if err != nil {
		endWithError(err)
	}

	stdlibLogger := log.New(os.Stdout, "", log.LstdFlags)
	logger := agentDomain.NewStdLogger(stdlibLogger)

	if config.Once {
		if err := runOnce(ctx, config, logger); err != nil {
			logger.Error("one-shot report failed: %s", err.Error())
			os.Exit(1)
		}
		return
	}

	notifier := agentInfrastructure.NewStatusNotifier(config.StateDir, logger)

	gate := agentDomain.NewPermissionGate(logger,
		agentInfrastructure.NewSourceProbe(config.SourceAddress),
		agentInfrastructure.NewDirProbe(agentDomain.CapabilityState, config.StateDir),
		agentInfrastructure.NewDirProbe(agentDomain.CapabilityBackgroundRun, config.UnitDir),
		agentInfrastructure.NewNotifierProbe(notifier),
	)
	grants := gate.EnsureCapabilities(ctx)
	if !grants.AllGranted() {
		// The pipeline still runs: a missing capability surfaces downstream
		// as unavailable/failed cycles on the diagnostic stream.
		logger.Error("not all capabilities granted, running best effort")
	}

	scheduler := agentDomain.NewForegroundScheduler(logger, notifier, buildPipeline(config, logger), config.Cadence)
	err = scheduler.Configure(
		agentDomain.NotificationChannel{
			ID:          notificationChannelID,
			DisplayName: "Location reporting",
			Description: "Shows while the agent reports the device position",
			Importance:  agentDomain.ImportanceLow,
		},
		agentDomain.ServiceConfig{
			NotificationChannelID: notificationChannelID,
			InitialTitle:          "Location reporting active",
			InitialBody:           "The device position is being published in the background",
			NotificationID:        serviceNotificationID,
		},
	)
	if err != nil {
		endWithError(err)
	}

	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := scheduler.Start(ctx); err != nil {
			logger.Error("foreground scheduler failed: %s", err.Error())
		}
		finish()
	}()

	task, err := agentDomain.NewPeriodicTask(fallbackTaskID, fallbackUniqueName, config.FallbackCadence)
	if err != nil {
		endWithError(err)
	}
	executable, err := os.Executable()
	if err != nil {
		executable = "geobeacon-agent"
	}
	registrar := agentInfrastructure.NewSystemdRegistrar(config.UnitDir, onceCommandLine(executable, config), agentInfrastructure.ExecRunner{}, logger)
	if err := registrar.Register(ctx, task); err != nil {
		// The foreground schedule still provides cadence; only the
		// process-death resilience is degraded.
		logger.Error("fallback registration failed: %s", err.Error())
	}

	controlServer := agentInfrastructure.NewControlServer(config.ControlAddress, scheduler.Stop, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := controlServer.Run(ctx); err != nil {
			logger.Error("control server failed: %s", err.Error())
			finish()
		}
	}()

	wg.Wait()
	logger.Info("agent stopped")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/benvon/thermod/internal/actuator"
	"github.com/benvon/thermod/internal/clock"
	"github.com/benvon/thermod/internal/controlsocket"
	"github.com/benvon/thermod/internal/cycle"
	"github.com/benvon/thermod/internal/diagnostics"
	"github.com/benvon/thermod/internal/exitcode"
	"github.com/benvon/thermod/internal/masterlock"
	"github.com/benvon/thermod/internal/status"
	"github.com/benvon/thermod/internal/thermometer"
	"github.com/benvon/thermod/internal/timetable"
	"github.com/benvon/thermod/pkg/config"
	"github.com/benvon/thermod/pkg/retry"
	"github.com/benvon/thermod/pkg/temperature"
)

var (
	configFile = flag.String("config", "/etc/thermod/thermod.yaml", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

const (
	appName    = "thermod"
	appVersion = "1.0.0"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("%s version %s\n", appName, appVersion)
		os.Exit(exitcode.Success.Int())
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(exitcode.ConfigError.Int())
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLogLevel(cfg.Daemon.LogLevel))
	logger := setupLogger(levelVar, cfg.Daemon.LogFile)
	logger.Info("starting thermod", "version", appVersion, "config_file", *configFile)

	tt, err := timetable.Load(cfg.Daemon.TimetablePath)
	if err != nil {
		logger.Error("failed to load timetable", "error", err, "path", cfg.Daemon.TimetablePath)
		os.Exit(exitCodeForTimetableError(err))
	}

	thermo, err := buildThermometer(cfg.Thermometer)
	if err != nil {
		logger.Error("failed to initialize thermometer", "error", err)
		os.Exit(exitcode.ThermometerInitError.Int())
	}

	heating, err := buildActuator(cfg.Heating)
	if err != nil {
		logger.Error("failed to initialize heating actuator", "error", err)
		os.Exit(exitcode.HeatingActuatorInitError.Int())
	}

	cooling := heating
	if cfg.Cooling.Enabled {
		cooling, err = buildActuator(cfg.Cooling)
		if err != nil {
			logger.Error("failed to initialize cooling actuator", "error", err)
			os.Exit(exitcode.CoolingActuatorInitError.Int())
		}
	}

	lock := masterlock.New()
	pub := status.NewPublisher()
	metrics := diagnostics.NewMetricsCollector()
	health := diagnostics.NewHealthChecker(thermo, heating, cooling, tt)

	cyc := cycle.New(cycle.Config{
		Interval:     cfg.Daemon.Interval,
		SleepOnError: cfg.Daemon.SleepOnError,
	}, lock, tt, clock.System{}, thermo, heating, cooling, pub, metrics, logger)

	socket := controlsocket.New(lock, tt, cyc, pub, logger)
	socketServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Socket.Host, cfg.Socket.Port),
		Handler: socket,
	}

	diagMux := http.NewServeMux()
	diagMux.Handle("/healthz", health.ServeHealth())
	diagMux.Handle("/metrics", metrics.ServeMetrics())
	diagServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Diagnostics.HealthPort),
		Handler: diagMux,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	socketErrCh := make(chan error, 1)
	diagErrCh := make(chan error, 1)

	go func() {
		logger.Info("starting control socket", "addr", socketServer.Addr)
		if err := socketServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			socketErrCh <- err
		}
	}()
	go func() {
		logger.Info("starting diagnostics server", "addr", diagServer.Addr)
		if err := diagServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			diagErrCh <- err
		}
	}()

	go cyc.Run(ctx)

	exitCode := handleSignals(ctx, cancel, lock, tt, cyc, logger, levelVar, cfg.Daemon.LogLevel, socketErrCh, diagErrCh)

	if avg, ok := thermo.(*thermometer.MovingAverage); ok {
		avg.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	shutdownFailed := false
	if err := socketServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down control socket", "error", err)
		shutdownFailed = true
	}
	if err := diagServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down diagnostics server", "error", err)
		shutdownFailed = true
	}

	logger.Info("thermod stopped")
	if shutdownFailed {
		os.Exit(exitcode.ShutdownError.Int())
	}
	os.Exit(exitCode)
}

// handleSignals blocks until SIGINT, SIGTERM, or one of the server error
// channels fires, handling SIGHUP (reload) and SIGUSR1 (toggle debug
// logging) in the meantime. It returns the process exit code to use.
func handleSignals(ctx context.Context, cancel context.CancelFunc, lock *masterlock.Lock, tt *timetable.TimeTable, cyc *cycle.Cycle, logger *slog.Logger, levelVar *slog.LevelVar, configuredLevel string, socketErrCh, diagErrCh <-chan error) int {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1)

	debugToggled := false
	for {
		select {
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGINT:
				logger.Info("received interrupt, shutting down", "signal", sig)
				cyc.Shutdown()
				cancel()
				return exitcode.KeyboardInterrupt.Int()
			case syscall.SIGTERM:
				logger.Info("received signal, shutting down gracefully", "signal", sig)
				cyc.Shutdown()
				cancel()
				return exitcode.Success.Int()
			case syscall.SIGHUP:
				logger.Info("received SIGHUP, reloading timetable")
				lock.Lock()
				err := tt.Reload()
				lock.Unlock()
				if err != nil {
					logger.Error("timetable reload failed, keeping prior state", "error", err)
					continue
				}
				cyc.Notify()
			case syscall.SIGUSR1:
				debugToggled = !debugToggled
				if debugToggled {
					levelVar.Set(slog.LevelDebug)
					logger.Info("received SIGUSR1, debug logging enabled")
				} else {
					levelVar.Set(parseLogLevel(configuredLevel))
					logger.Info("received SIGUSR1, restored configured log level", "level", configuredLevel)
				}
			}
		case err := <-socketErrCh:
			logger.Error("control socket failed to start, shutting down", "error", err)
			cyc.Shutdown()
			cancel()
			return exitcode.ControlSocketInitError.Int()
		case err := <-diagErrCh:
			logger.Error("diagnostics server failed, shutting down", "error", err)
			cyc.Shutdown()
			cancel()
			return exitcode.RuntimeError.Int()
		case <-ctx.Done():
			return exitcode.Success.Int()
		}
	}
}

func buildThermometer(d config.DriverConfig) (thermometer.Thermometer, error) {
	switch d.Driver {
	case "memory":
		initial, _ := d.Settings["initial_temperature"].(float64)
		return thermometer.NewMemory(initial), nil
	case "remote":
		url, ok := d.Settings["url"].(string)
		if !ok || url == "" {
			return nil, fmt.Errorf("remote thermometer requires settings.url")
		}
		timeout := 5 * time.Second
		if s, ok := d.Settings["timeout"].(string); ok {
			if parsed, err := time.ParseDuration(s); err == nil {
				timeout = parsed
			}
		}
		var t thermometer.Thermometer = thermometer.NewRemote(url, timeout, retry.DefaultConfig())
		if unit, ok := d.Settings["source_unit"].(string); ok && unit == "fahrenheit" {
			t = thermometer.NewScaleAdapter(t, temperature.StandardFahrenheit, temperature.StandardCelsius)
		}
		if maxDelta, ok := d.Settings["max_delta"].(float64); ok && maxDelta > 0 {
			t = thermometer.NewOutlierFilter(t, maxDelta)
		}
		if window, ok := d.Settings["moving_average_window"].(float64); ok && window > 1 {
			period := time.Minute
			if s, ok := d.Settings["moving_average_period"].(string); ok {
				if parsed, err := time.ParseDuration(s); err == nil {
					period = parsed
				}
			}
			avg := thermometer.NewMovingAverage(t, int(window), period)
			avg.Start(context.Background())
			t = avg
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown thermometer driver %q", d.Driver)
	}
}

func buildActuator(d config.DriverConfig) (actuator.Actuator, error) {
	switch d.Driver {
	case "memory":
		return actuator.NewMemory(), nil
	case "script":
		path, ok := d.Settings["script_path"].(string)
		if !ok || path == "" {
			return nil, fmt.Errorf("script actuator requires settings.script_path")
		}
		return actuator.NewScript(path, retry.DefaultConfig()), nil
	default:
		return nil, fmt.Errorf("unknown actuator driver %q", d.Driver)
	}
}

func exitCodeForTimetableError(err error) int {
	tErr, ok := err.(*timetable.Error)
	if !ok {
		if os.IsNotExist(err) {
			return exitcode.TimetableNotFound.Int()
		}
		return exitcode.TimetableUnreadable.Int()
	}
	switch timetable.Code(tErr.Code()) {
	case timetable.CodeInvalidSyntax:
		return exitcode.TimetableInvalidSyntax.Int()
	case timetable.CodeInvalidContent:
		return exitcode.TimetableInvalidContent.Int()
	default:
		if os.IsNotExist(tErr.Unwrap()) {
			return exitcode.TimetableNotFound.Int()
		}
		return exitcode.TimetableUnreadable.Int()
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogger builds the daemon's structured logger. When logFile is set,
// output rotates through lumberjack; otherwise it writes to stdout.
func setupLogger(levelVar *slog.LevelVar, logFile string) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: levelVar}
	if logFile != "" {
		writer := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

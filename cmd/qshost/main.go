// qshost supervises standalone bluesky queue-server host instances.
//
// Unlike the id28core daemon, which keeps the host as a managed child,
// qshost works with detached instances tracked through PID files. This
// makes it suitable for cron checkups and interactive beamline use.
//
// Usage:
//
//	qshost [flags] <command> [NAME]
//
// Commands:
//
//	start    launch a detached instance
//	stop     stop a running instance
//	restart  stop then start
//	status   print instance status as JSON
//	checkup  start the instance only if it is not running
//	console  follow the instance log
//	run      run the host in the foreground
//
// NAME selects the instance (default "qs-host-id28"). PID and log files
// live in the state directory, one pair per instance.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aps28id/id28-core/internal/qserver"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes follow LSB init script conventions: 3 means the program
// is not running, which lets `qshost status` drive shell conditionals.
const (
	exitOK         = 0
	exitError      = 1
	exitNotRunning = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  = flag.String("config", os.Getenv("ID28_QSERVER_CONFIG_PATH"), "queue-server startup YAML, passed as --config")
		binary      = flag.String("binary", envOr("ID28_QSERVER_BINARY", qserver.DefaultBinary), "host executable")
		stateDir    = flag.String("state-dir", os.Getenv("ID28_QSERVER_STATE_DIR"), "directory for PID and log files")
		controlPort = flag.Int("control-port", qserver.DefaultControlPort, "ZMQ control port")
		infoPort    = flag.Int("info-port", qserver.DefaultInfoPort, "ZMQ info port")
		gracefulSec = flag.Int("graceful-timeout", 10, "seconds to wait after SIGTERM before SIGKILL")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("qshost %s (%s)\n", version, commit)
		return exitOK
	}

	args := flag.Args()
	if len(args) < 1 {
		usage()
		return exitError
	}
	command := args[0]

	name := qserver.DefaultInstanceName
	if len(args) > 1 {
		name = args[1]
	}

	cfg := qserver.Config{
		Name:            name,
		Binary:          *binary,
		ConfigPath:      *configPath,
		StateDir:        *stateDir,
		ControlPort:     *controlPort,
		InfoPort:        *infoPort,
		GracefulTimeout: time.Duration(*gracefulSec) * time.Second,
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "qshost: %v\n", err)
		return exitError
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctl := qserver.NewControl(cfg)

	err := dispatch(ctx, ctl, command)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, qserver.ErrNotRunning):
		fmt.Fprintf(os.Stderr, "qshost: %s is not running\n", name)
		return exitNotRunning
	case errors.Is(err, context.Canceled):
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "qshost: %v\n", err)
		return exitError
	}
}

// dispatch runs one supervision command against the instance.
func dispatch(ctx context.Context, ctl *qserver.Control, command string) error {
	switch command {
	case "start":
		pid, err := ctl.Start(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("started %s (pid %d)\n", ctl.Config().Name, pid)
		return nil

	case "stop":
		if err := ctl.Stop(); err != nil {
			return err
		}
		fmt.Printf("stopped %s\n", ctl.Config().Name)
		return nil

	case "restart":
		pid, err := ctl.Restart(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("restarted %s (pid %d)\n", ctl.Config().Name, pid)
		return nil

	case "status":
		st := ctl.Status()
		out, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		if !st.Running {
			return ErrStatusNotRunning
		}
		return nil

	case "checkup":
		started, err := ctl.Checkup(ctx)
		if err != nil {
			return err
		}
		if started {
			fmt.Printf("checkup: started %s\n", ctl.Config().Name)
		} else {
			fmt.Printf("checkup: %s already running\n", ctl.Config().Name)
		}
		return nil

	case "console":
		return ctl.Console(ctx, os.Stdout)

	case "run":
		return ctl.Run(ctx)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// ErrStatusNotRunning makes the status command exit with code 3 when
// the instance is down, matching init script conventions.
var ErrStatusNotRunning = fmt.Errorf("status: %w", qserver.ErrNotRunning)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: qshost [flags] <command> [NAME]

Commands:
  start    launch a detached queue-server host instance
  stop     stop a running instance
  restart  stop then start
  status   print instance status as JSON (exit 3 if not running)
  checkup  start the instance only if it is not already running
  console  follow the instance log (Ctrl-C to detach)
  run      run the host in the foreground

Flags:
`)
	flag.PrintDefaults()
}

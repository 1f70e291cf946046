package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xarrange/xarrange/internal/config"
	"github.com/xarrange/xarrange/internal/daemon"
	"github.com/xarrange/xarrange/internal/ipc"
	"github.com/xarrange/xarrange/internal/mcp"
	"github.com/xarrange/xarrange/internal/session"
	"github.com/xarrange/xarrange/internal/tui"
	"github.com/xarrange/xarrange/internal/x11"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: xarrange daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: xarrange daemon")
			os.Exit(2)
		}
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "outputs":
		os.Exit(runOutputs(os.Args[2:]))
	case "move":
		os.Exit(runMove(os.Args[2:]))
	case "place":
		os.Exit(runPlace(os.Args[2:]))
	case "enable":
		os.Exit(runEnable(os.Args[2:], true))
	case "disable":
		os.Exit(runEnable(os.Args[2:], false))
	case "mode":
		os.Exit(runMode(os.Args[2:]))
	case "rotate":
		os.Exit(runRotate(os.Args[2:]))
	case "reflect":
		os.Exit(runReflect(os.Args[2:]))
	case "primary":
		os.Exit(runPrimary(os.Args[2:]))
	case "apply":
		os.Exit(runApply(os.Args[2:]))
	case "confirm":
		os.Exit(runSimple("confirm", os.Args[2:], func(c *ipc.Client) error { return c.Confirm() }))
	case "revert":
		os.Exit(runSimple("revert", os.Args[2:], func(c *ipc.Client) error { return c.Revert() }))
	case "reset":
		os.Exit(runSimple("reset", os.Args[2:], func(c *ipc.Client) error { return c.Reset() }))
	case "reload":
		os.Exit(runSimple("reload", os.Args[2:], func(c *ipc.Client) error { return c.Reload() }))
	case "cmd":
		os.Exit(runCmd(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: xarrange <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the xarrange daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  outputs             List outputs and their desired state")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  move                Move an output by a delta (optionally snapped)")
	fmt.Fprintln(w, "  place               Place an output at an absolute position")
	fmt.Fprintln(w, "  enable              Enable an output at its preferred mode")
	fmt.Fprintln(w, "  disable             Disable an output")
	fmt.Fprintln(w, "  mode                Select an output's mode")
	fmt.Fprintln(w, "  rotate              Set an output's rotation")
	fmt.Fprintln(w, "  reflect             Set an output's reflection")
	fmt.Fprintln(w, "  primary             Mark an output as primary")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  apply               Push the working layout to the display server")
	fmt.Fprintln(w, "  confirm             Keep an applied configuration")
	fmt.Fprintln(w, "  revert              Restore the previous configuration")
	fmt.Fprintln(w, "  reset               Discard working layout edits")
	fmt.Fprintln(w, "  cmd                 Print the layout as an xrandr invocation")
	fmt.Fprintln(w, "  reload              Reload daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open interactive TUI")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'xarrange <command> --help' for command-specific options.")
}

func runSimple(name string, args []string, fn func(*ipc.Client) error) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: xarrange %s\n", name)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}

	if err := fn(ipc.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xarrange status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("state:          %s\n", status.State)
	fmt.Printf("modified:       %v\n", status.Modified)
	fmt.Printf("output_count:   %d\n", status.OutputCount)
	if status.ConfirmRemaining > 0 {
		fmt.Printf("confirm_in:     %.0fs\n", status.ConfirmRemaining)
	}
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runOutputs(args []string) int {
	fs := flag.NewFlagSet("outputs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xarrange outputs [--json] [--modes]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List outputs and their desired state.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output full details as JSON")
	showModes := fs.Bool("modes", false, "List supported modes per output")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "outputs takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	data, err := client.GetOutputs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	fmt.Printf("screen: %dx%d\n", data.ScreenWidth, data.ScreenHeight)
	for _, o := range data.Outputs {
		marker := " "
		if o.Primary {
			marker = "*"
		}
		if !o.Enabled {
			fmt.Printf("%s %-12s off", marker, o.Name)
		} else if o.Mode != nil {
			fmt.Printf("%s %-12s %dx%d@%.2f +%d+%d %s/%s",
				marker, o.Name, o.Mode.Width, o.Mode.Height, o.Mode.Refresh,
				o.X, o.Y, o.Rotation, o.Reflection)
		} else {
			fmt.Printf("%s %-12s enabled (no mode)", marker, o.Name)
		}
		if o.Product != "" {
			fmt.Printf("  [%s]", o.Product)
		}
		fmt.Println()
		if *showModes {
			for _, m := range o.Modes {
				fmt.Printf("      %dx%d@%.2f\n", m.Width, m.Height, m.Refresh)
			}
		}
	}
	return 0
}

func runMove(args []string) int {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xarrange move [--snap] <output> <dx> <dy>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Move an output by a pixel delta in the working layout.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	snap := fs.Bool("snap", false, "Snap to edges and centers of other outputs")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "move requires <output> <dx> <dy>")
		fs.Usage()
		return 2
	}
	var dx, dy int
	if _, err := fmt.Sscanf(fs.Arg(1), "%d", &dx); err != nil {
		fmt.Fprintf(os.Stderr, "invalid dx: %s\n", fs.Arg(1))
		return 2
	}
	if _, err := fmt.Sscanf(fs.Arg(2), "%d", &dy); err != nil {
		fmt.Fprintf(os.Stderr, "invalid dy: %s\n", fs.Arg(2))
		return 2
	}

	if err := ipc.NewClient().MoveOutput(fs.Arg(0), dx, dy, *snap); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runPlace(args []string) int {
	fs := flag.NewFlagSet("place", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xarrange place <output> <x> <y>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Place an output at an absolute position in the working layout.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "place requires <output> <x> <y>")
		fs.Usage()
		return 2
	}
	var x, y int
	if _, err := fmt.Sscanf(fs.Arg(1), "%d", &x); err != nil {
		fmt.Fprintf(os.Stderr, "invalid x: %s\n", fs.Arg(1))
		return 2
	}
	if _, err := fmt.Sscanf(fs.Arg(2), "%d", &y); err != nil {
		fmt.Fprintf(os.Stderr, "invalid y: %s\n", fs.Arg(2))
		return 2
	}

	if err := ipc.NewClient().SetPosition(fs.Arg(0), x, y); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runEnable(args []string, enabled bool) int {
	name := "enable"
	if !enabled {
		name = "disable"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: xarrange %s <output>\n", name)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "%s requires <output>\n", name)
		fs.Usage()
		return 2
	}

	if err := ipc.NewClient().SetEnabled(fs.Arg(0), enabled); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runMode(args []string) int {
	fs := flag.NewFlagSet("mode", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xarrange mode [--rate R] <output> <width> <height>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Select an output's mode. Without --rate the highest rate wins.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	rate := fs.Float64("rate", 0, "Refresh rate in Hz")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "mode requires <output> <width> <height>")
		fs.Usage()
		return 2
	}
	var w, h int
	if _, err := fmt.Sscanf(fs.Arg(1), "%d", &w); err != nil {
		fmt.Fprintf(os.Stderr, "invalid width: %s\n", fs.Arg(1))
		return 2
	}
	if _, err := fmt.Sscanf(fs.Arg(2), "%d", &h); err != nil {
		fmt.Fprintf(os.Stderr, "invalid height: %s\n", fs.Arg(2))
		return 2
	}

	if err := ipc.NewClient().SetMode(fs.Arg(0), w, h, *rate); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runRotate(args []string) int {
	fs := flag.NewFlagSet("rotate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xarrange rotate <output> <normal|left|right|inverted>")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "rotate requires <output> <rotation>")
		fs.Usage()
		return 2
	}

	if err := ipc.NewClient().SetRotation(fs.Arg(0), fs.Arg(1)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runReflect(args []string) int {
	fs := flag.NewFlagSet("reflect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xarrange reflect <output> <normal|x|y|xy>")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "reflect requires <output> <reflection>")
		fs.Usage()
		return 2
	}

	if err := ipc.NewClient().SetReflection(fs.Arg(0), fs.Arg(1)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runPrimary(args []string) int {
	fs := flag.NewFlagSet("primary", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xarrange primary [--clear | <output>]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	clear := fs.Bool("clear", false, "Clear the primary designation")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *clear && fs.NArg() != 0 || !*clear && fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "primary requires <output> or --clear")
		fs.Usage()
		return 2
	}

	output := ""
	if !*clear {
		output = fs.Arg(0)
	}
	if err := ipc.NewClient().SetPrimary(output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runApply(args []string) int {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xarrange apply")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Push the working layout to the display server. The change must be")
		fmt.Fprintln(os.Stderr, "confirmed before the revert timeout elapses, or it is rolled back.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "apply takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().Apply()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if status.ConfirmRemaining > 0 {
		fmt.Printf("applied; run 'xarrange confirm' within %.0fs to keep it\n", status.ConfirmRemaining)
	} else {
		fmt.Println("applied; run 'xarrange confirm' to keep it")
	}
	return 0
}

func runCmd(args []string) int {
	fs := flag.NewFlagSet("cmd", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xarrange cmd")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print the working layout as an equivalent xrandr invocation.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "cmd takes no arguments")
		fs.Usage()
		return 2
	}

	cmd, err := ipc.NewClient().GetCommand()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(cmd)
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  xarrange config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  xarrange config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/xarrange/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var err error
		if *path == "" {
			_, err = config.Load()
		} else {
			_, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/xarrange/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			var err error
			if *path == "" {
				cfg, err = config.Load()
			} else {
				cfg, err = config.LoadFromPath(*path)
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: xarrange tui")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive TUI for arranging outputs via the daemon.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  j/k, Tab   Select output")
		fmt.Fprintln(os.Stderr, "  arrows     Move selected output")
		fmt.Fprintln(os.Stderr, "  s          Toggle snapping for moves")
		fmt.Fprintln(os.Stderr, "  e          Enable/disable selected output")
		fmt.Fprintln(os.Stderr, "  r          Cycle rotation")
		fmt.Fprintln(os.Stderr, "  p          Mark selected output primary")
		fmt.Fprintln(os.Stderr, "  a          Apply working layout")
		fmt.Fprintln(os.Stderr, "  c          Confirm applied configuration")
		fmt.Fprintln(os.Stderr, "  v          Revert applied configuration")
		fmt.Fprintln(os.Stderr, "  R          Reset working layout")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C  Quit")
		return 0
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	t := tui.New()
	if err := t.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return 0
}

func runMCP(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage: xarrange mcp serve")
		return 2
	}
	if args[0] != "serve" {
		fmt.Fprintf(os.Stderr, "Unknown mcp subcommand: %s\n", args[0])
		return 2
	}

	if err := mcp.Serve(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runDaemon() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded (snap: %s, revert timeout: %ds)",
		cfg.SnapStrength, cfg.RevertTimeout)

	// Connect to display server
	conn, err := x11.NewConnection()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer conn.Close()

	backend, err := x11.NewBackend(conn)
	if err != nil {
		log.Fatalf("Failed to initialize RandR backend: %v", err)
	}

	ctrl, err := session.New(backend, cfg, func(ev session.Event) {
		switch ev.Kind {
		case session.EventApplyStarted:
			log.Println("Applying configuration...")
		case session.EventApplySucceeded:
			log.Println("Configuration applied, awaiting confirmation")
		case session.EventApplyFailed:
			log.Printf("Apply failed: %s", ev.Reason)
		case session.EventReverted:
			log.Printf("Configuration reverted (%s)", ev.Reason)
		}
	})
	if err != nil {
		log.Fatalf("Failed to enumerate outputs: %v", err)
	}
	log.Printf("xarrange daemon started with %d outputs", len(ctrl.View().Outputs()))

	// Create config reload channel
	reloadChan := make(chan struct{}, 1)

	// Start IPC server
	ipcServer, err := ipc.NewServer(ctrl, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	// Setup catalog watcher
	watcherLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	watcher := daemon.NewWatcher(daemon.WatcherConfig{
		Interval: 5 * time.Second,
		Logger:   watcherLogger,
	}, ctrl)

	watcherCtx, watcherCancel := context.WithCancel(context.Background())
	defer watcherCancel()
	go watcher.Run(watcherCtx)

	// Hotplug events refresh the catalog immediately; the ticker above
	// covers servers that drop the subscription.
	if err := conn.WatchChanges(watcher.SyncNow); err != nil {
		log.Printf("RandR change notifications unavailable, polling only: %v", err)
	}

	// Setup signal handlers
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				log.Println("Received SIGHUP, reloading config...")
				newCfg, err := config.Load()
				if err != nil {
					log.Printf("Config reload failed: %v", err)
					continue
				}
				ctrl.UpdateConfig(newCfg)
				log.Println("Config reloaded successfully")

			case os.Interrupt, syscall.SIGTERM:
				log.Println("Shutting down xarrange daemon...")
				watcherCancel()
				ipcServer.Stop()
				return
			}

		case <-reloadChan:
			// Config was reloaded via IPC; the controller already has it.
			log.Println("Configuration updated via IPC")
		}
	}
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/1broseidon/tabtile/internal/config"
	"github.com/1broseidon/tabtile/internal/group"
	"github.com/1broseidon/tabtile/internal/ipc"
	"github.com/1broseidon/tabtile/internal/runtimepath"
	"github.com/1broseidon/tabtile/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "groups":
		os.Exit(runGroups(os.Args[2:]))
	case "group":
		os.Exit(runGroup(os.Args[2:]))
	case "tab":
		os.Exit(runTab(os.Args[2:]))
	case "cycle":
		os.Exit(runCycle(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
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
	fmt.Fprintln(w, "Usage: tabtile <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the tabtile daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  groups              Show every group and its tab bar")
	fmt.Fprintln(w, "  reload              Ask the daemon to reload its config")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  group create        Group two or more windows")
	fmt.Fprintln(w, "  group add           Add a window to a group")
	fmt.Fprintln(w, "  group release       Take a window out of its group")
	fmt.Fprintln(w, "  group rename        Rename a group")
	fmt.Fprintln(w, "  group separator     Insert a separator tab")
	fmt.Fprintln(w, "  group dissolve      Dissolve one group or all of them")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tab switch          Activate a tab")
	fmt.Fprintln(w, "  tab pin             Pin tabs (also superpin, unpin)")
	fmt.Fprintln(w, "  tab move            Reorder tabs within a group")
	fmt.Fprintln(w, "  tab drop            Move tabs into another group")
	fmt.Fprintln(w, "  tab rename          Set a custom tab label")
	fmt.Fprintln(w, "  tab close           Close a tab's window")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  cycle next          Step the active group's recent-tab cycle")
	fmt.Fprintln(w, "  cycle end           Commit the running cycle")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "  config path         Print the config file path")
	fmt.Fprintln(w, "  config init         Write a default config file")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Windows are X11 IDs in decimal or 0x-prefixed hex.")
	fmt.Fprintln(w, "Run 'tabtile <command> --help' for command-specific options.")
}

func isHelp(arg string) bool {
	return arg == "help" || arg == "-h" || arg == "--help"
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tabtile status")
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
		if pid, alive, perr := runtimepath.ReadPID(); perr == nil && alive {
			fmt.Fprintf(os.Stderr, "pid file names live process %d; the socket may be stale\n", pid)
		}
		return 1
	}
	fmt.Printf("daemon_running:   %v\n", status.DaemonRunning)
	fmt.Printf("groups:           %d\n", status.Groups)
	fmt.Printf("windows:          %d\n", status.Windows)
	fmt.Printf("maximized_groups: %d\n", status.MaximizedGroups)
	fmt.Printf("uptime_seconds:   %d\n", status.UptimeSeconds)
	return 0
}

func runGroups(args []string) int {
	fs := flag.NewFlagSet("groups", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tabtile groups [--json] [--width N]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show every group with a text rendering of its tab bar.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output group snapshots as JSON")
	width := fs.Int("width", 0, "Bar width in cells (default: terminal width)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "groups takes no arguments")
		fs.Usage()
		return 2
	}

	views, err := ipc.NewClient().ListGroups()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(views); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	palette := paletteFromConfig(loadConfigOrDefault())
	fmt.Println(tui.RenderGroups(views, barWidth(*width), palette))
	return 0
}

func runReload(args []string) int {
	if len(args) > 0 {
		if isHelp(args[0]) {
			fmt.Fprintln(os.Stdout, "Usage: tabtile reload")
			return 0
		}
		fmt.Fprintln(os.Stderr, "reload takes no arguments")
		return 2
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

// barWidth picks the rendering width: an explicit flag, else the terminal
// width, else tui.DefaultWidth.
func barWidth(flagWidth int) int {
	if flagWidth > 0 {
		return flagWidth
	}
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	return tui.DefaultWidth
}

// loadConfigOrDefault is for read-only CLI rendering, where a broken config
// should not stop the command.
func loadConfigOrDefault() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// parseWindowID accepts decimal or 0x-prefixed hex, the two forms xprop and
// wmctrl print.
func parseWindowID(s string) (group.WindowID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return group.WindowID(v), nil
}

func parseWindowIDs(args []string) ([]group.WindowID, error) {
	out := make([]group.WindowID, 0, len(args))
	for _, arg := range args {
		// Allow "1,2,3" as well as separate arguments.
		for _, part := range strings.Split(arg, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseWindowID(part)
			if err != nil {
				return nil, err
			}
			out = append(out, id)
		}
	}
	return out, nil
}

func parseIndex(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return v, nil
}

// optionalIndex maps the -1 flag default to "append".
func optionalIndex(v int) *int {
	if v < 0 {
		return nil
	}
	return &v
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}

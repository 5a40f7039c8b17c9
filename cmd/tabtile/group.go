package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/tabtile/internal/group"
	"github.com/1broseidon/tabtile/internal/ipc"
)

func printGroupUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tabtile group create [--name NAME] <window> <window>...")
	fmt.Fprintln(w, "  tabtile group add [--index N] <group> <window>")
	fmt.Fprintln(w, "  tabtile group add --next [--index N] <group>")
	fmt.Fprintln(w, "  tabtile group release <group> <window>")
	fmt.Fprintln(w, "  tabtile group rename <group> <name>")
	fmt.Fprintln(w, "  tabtile group separator [--index N] <group>")
	fmt.Fprintln(w, "  tabtile group dissolve <group>|--all")
}

func runGroup(args []string) int {
	if len(args) == 0 {
		printGroupUsage(os.Stderr)
		return 2
	}
	if isHelp(args[0]) {
		printGroupUsage(os.Stdout)
		return 0
	}

	client := ipc.NewClient()

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("create", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		name := fs.String("name", "", "Group name")
		if err := fs.Parse(args[1:]); err != nil {
			return parseExit(err)
		}
		windows, err := parseWindowIDs(fs.Args())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		if len(windows) < 2 {
			fmt.Fprintln(os.Stderr, "group create requires at least two windows")
			return 2
		}
		view, err := client.CreateGroup(windows, *name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(view.ID)
		return 0

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		next := fs.Bool("next", false, "Wait for the next new window and add it")
		index := fs.Int("index", -1, "Insertion index (default: append)")
		if err := fs.Parse(args[1:]); err != nil {
			return parseExit(err)
		}
		if *next {
			if fs.NArg() != 1 {
				fmt.Fprintln(os.Stderr, "group add --next requires <group>")
				return 2
			}
			view, err := client.CaptureWindow(group.ID(fs.Arg(0)), optionalIndex(*index))
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			fmt.Printf("%s: %d tabs\n", view.ID, len(view.Windows))
			return 0
		}
		if fs.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "group add requires <group> <window>")
			return 2
		}
		window, err := parseWindowID(fs.Arg(1))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		view, err := client.AddWindow(group.ID(fs.Arg(0)), window, optionalIndex(*index))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("%s: %d tabs\n", view.ID, len(view.Windows))
		return 0

	case "release":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "group release requires <group> <window>")
			return 2
		}
		window, err := parseWindowID(args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		return exitFor(client.ReleaseWindow(group.ID(args[1]), window))

	case "rename":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "group rename requires <group> <name>")
			return 2
		}
		return exitFor(client.RenameGroup(group.ID(args[1]), args[2]))

	case "separator":
		fs := flag.NewFlagSet("separator", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		index := fs.Int("index", -1, "Insertion index (default: append)")
		if err := fs.Parse(args[1:]); err != nil {
			return parseExit(err)
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "group separator requires <group>")
			return 2
		}
		return exitFor(client.AddSeparator(group.ID(fs.Arg(0)), optionalIndex(*index)))

	case "dissolve":
		fs := flag.NewFlagSet("dissolve", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		all := fs.Bool("all", false, "Dissolve every group")
		if err := fs.Parse(args[1:]); err != nil {
			return parseExit(err)
		}
		if *all {
			if fs.NArg() != 0 {
				fmt.Fprintln(os.Stderr, "group dissolve --all takes no arguments")
				return 2
			}
			return exitFor(client.DissolveAll())
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "group dissolve requires <group> or --all")
			return 2
		}
		return exitFor(client.DissolveGroup(group.ID(fs.Arg(0))))

	default:
		fmt.Fprintf(os.Stderr, "Unknown group command: %s\n\n", args[0])
		printGroupUsage(os.Stderr)
		return 2
	}
}

func printTabUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tabtile tab switch <group> <index>")
	fmt.Fprintln(w, "  tabtile tab pin|superpin|unpin <group> <window>...")
	fmt.Fprintln(w, "  tabtile tab move <group> <index> <window>...")
	fmt.Fprintln(w, "  tabtile tab drop [--index N] <source> <target> <window>...")
	fmt.Fprintln(w, "  tabtile tab rename <group> <window> [name]")
	fmt.Fprintln(w, "  tabtile tab close <window>")
}

func runTab(args []string) int {
	if len(args) == 0 {
		printTabUsage(os.Stderr)
		return 2
	}
	if isHelp(args[0]) {
		printTabUsage(os.Stdout)
		return 0
	}

	client := ipc.NewClient()

	switch args[0] {
	case "switch":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "tab switch requires <group> <index>")
			return 2
		}
		index, err := parseIndex(args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		return exitFor(client.SwitchTab(group.ID(args[1]), index))

	case "pin", "superpin", "unpin":
		if len(args) < 3 {
			fmt.Fprintf(os.Stderr, "tab %s requires <group> <window>...\n", args[0])
			return 2
		}
		windows, err := parseWindowIDs(args[2:])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		state := group.PinPinned
		switch args[0] {
		case "superpin":
			state = group.PinSuper
		case "unpin":
			state = group.PinNone
		}
		return exitFor(client.SetPin(group.ID(args[1]), windows, state))

	case "move":
		if len(args) < 4 {
			fmt.Fprintln(os.Stderr, "tab move requires <group> <index> <window>...")
			return 2
		}
		index, err := parseIndex(args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		windows, err := parseWindowIDs(args[3:])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		return exitFor(client.MoveTabs(group.ID(args[1]), windows, index))

	case "drop":
		fs := flag.NewFlagSet("drop", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		index := fs.Int("index", -1, "Insertion index in the target (default: append)")
		if err := fs.Parse(args[1:]); err != nil {
			return parseExit(err)
		}
		if fs.NArg() < 3 {
			fmt.Fprintln(os.Stderr, "tab drop requires <source> <target> <window>...")
			return 2
		}
		windows, err := parseWindowIDs(fs.Args()[2:])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		return exitFor(client.DropTabs(group.ID(fs.Arg(0)), windows, group.ID(fs.Arg(1)), optionalIndex(*index)))

	case "rename":
		if len(args) != 3 && len(args) != 4 {
			fmt.Fprintln(os.Stderr, "tab rename requires <group> <window> [name]")
			return 2
		}
		window, err := parseWindowID(args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		name := ""
		if len(args) == 4 {
			name = args[3]
		}
		return exitFor(client.RenameTab(group.ID(args[1]), window, name))

	case "close":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "tab close requires <window>")
			return 2
		}
		window, err := parseWindowID(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		return exitFor(client.CloseWindow(window))

	default:
		fmt.Fprintf(os.Stderr, "Unknown tab command: %s\n\n", args[0])
		printTabUsage(os.Stderr)
		return 2
	}
}

func runCycle(args []string) int {
	if len(args) != 1 || isHelp(args[0]) {
		fmt.Fprintln(os.Stderr, "Usage: tabtile cycle next|end")
		if len(args) == 1 {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	switch args[0] {
	case "next":
		return exitFor(client.Cycle())
	case "end":
		return exitFor(client.CycleEnd())
	default:
		fmt.Fprintf(os.Stderr, "Unknown cycle command: %s\n", args[0])
		return 2
	}
}

func parseExit(err error) int {
	if err == flag.ErrHelp {
		return 0
	}
	return 2
}

func exitFor(err error) int {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

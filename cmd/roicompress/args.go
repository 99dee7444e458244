package main

import (
	"strings"

	"github.com/urfave/cli/v2"
)

// flagsFirst moves options that follow positional arguments in front of
// them, since the flag parser stops at the first positional argument.
// Options of a subcommand stay behind the subcommand name.
func flagsFirst(app *cli.App, args []string) []string {
	if len(args) < 2 {
		return args
	}
	out := []string{args[0]}
	rest := args[1:]

	flags, positional, first := splitArgs(rest, app.Flags)
	if first >= 0 {
		if cmd := app.Command(rest[first]); cmd != nil {
			// Global options must precede the subcommand name.
			out = append(out, rest[:first+1]...)
			cmdFlags, cmdArgs, _ := splitArgs(rest[first+1:], cmd.Flags)
			return join(out, cmdFlags, cmdArgs)
		}
	}
	return join(out, flags, positional)
}

// join appends flags then positional arguments, restoring "--" when a
// positional argument looks like an option.
func join(out, flags, positional []string) []string {
	out = append(out, flags...)
	for _, p := range positional {
		if len(p) > 1 && p[0] == '-' {
			out = append(out, "--")
			break
		}
	}
	return append(out, positional...)
}

// splitArgs separates options, with their values, from positional arguments.
// Everything after "--" is positional. first is the index in args of the
// first positional argument, or -1.
func splitArgs(args []string, defs []cli.Flag) (flags, positional []string, first int) {
	first = -1
	takesValue := valueFlags(defs)
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			if i+1 < len(args) && first < 0 {
				first = i + 1
			}
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			if first < 0 {
				first = i
			}
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if takesValue[name] && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	return flags, positional, first
}

// valueFlags returns every name and alias of the options that take a value.
func valueFlags(defs []cli.Flag) map[string]bool {
	names := make(map[string]bool)
	for _, f := range defs {
		tv, ok := f.(interface{ TakesValue() bool })
		if !ok || !tv.TakesValue() {
			continue
		}
		for _, n := range f.Names() {
			names[n] = true
		}
	}
	return names
}

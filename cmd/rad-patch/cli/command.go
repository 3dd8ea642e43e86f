// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rad-patch/lib/fault"
)

// Command is a CLI command: a flag set and the function that runs
// once the flags are parsed.
type Command struct {
	// Name is the command name as typed by the user.
	Name string

	// Summary is a one-line description, used when Description is
	// empty.
	Summary string

	// Description is a detailed multi-line description shown in help
	// output.
	Description string

	// Usage is the usage string (e.g., "rad-patch [flags]"). If empty,
	// it is synthesized from the name.
	Usage string

	// Examples are shown in the help output after the flags.
	Examples []Example

	// Flags returns a configured *pflag.FlagSet for this command. It
	// is called once per parse and once per help rendering, so it
	// must bind the same variables each time. If nil, the command
	// accepts no flags.
	Flags func() *pflag.FlagSet

	// Run executes the command with the positional args left after
	// flag parsing.
	Run func(ctx context.Context, args []string) error

	// Output receives help text. Defaults to os.Stderr.
	Output io.Writer
}

// Example is a usage example shown in help output.
type Example struct {
	// Description explains what the example does.
	Description string
	// Command is the literal command line.
	Command string
}

// Execute parses args and calls Run. Help requests print help and
// return nil. Flag errors are usage faults carrying a pointer to
// --help, with a suggestion when the unknown flag is close to a
// defined one.
func (c *Command) Execute(ctx context.Context, args []string) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(c.output())
		return nil
	}

	if c.Flags != nil {
		flagSet := c.Flags()

		// pflag would otherwise print its own error and a usage dump.
		flagSet.SetOutput(io.Discard)

		if err := flagSet.Parse(args); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				c.PrintHelp(c.output())
				return nil
			}
			message := err.Error()
			if strings.Contains(message, "unknown flag") || strings.Contains(message, "unknown shorthand flag") {
				// The failed parse may have consumed state; suggest
				// against a fresh flag set.
				if suggestion := suggestFlag(args, c.Flags()); suggestion != "" {
					message = fmt.Sprintf("%s (did you mean %s?)", message, suggestion)
				}
			}
			return fault.WithHint(fault.Usage, fmt.Errorf("%s", message), c.helpHint())
		}
		args = flagSet.Args()
	}

	if c.Run == nil {
		c.PrintHelp(c.output())
		return fmt.Errorf("no action defined for %q", c.Name)
	}
	return c.Run(ctx, args)
}

// UsageError returns a usage fault for a bad argument, pointing at
// --help.
func (c *Command) UsageError(format string, args ...any) error {
	return fault.WithHint(fault.Usage, fmt.Errorf(format, args...), c.helpHint())
}

// PrintHelp writes structured help output to w.
func (c *Command) PrintHelp(w io.Writer) {
	if c.Description != "" {
		fmt.Fprintf(w, "%s\n\n", c.Description)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	if c.Usage != "" {
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	} else {
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", c.Name)
	}

	if c.Flags != nil {
		flagSet := c.Flags()
		var flagHelp strings.Builder
		flagSet.SetOutput(&flagHelp)
		flagSet.PrintDefaults()
		if flagHelp.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
		}
	}

	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, example := range c.Examples {
			if example.Description != "" {
				fmt.Fprintf(w, "  # %s\n", example.Description)
			}
			fmt.Fprintf(w, "  %s\n", example.Command)
			if example.Description != "" {
				fmt.Fprintln(w)
			}
		}
	}
}

func (c *Command) helpHint() string {
	return fmt.Sprintf("Run '%s --help' for usage.", c.Name)
}

func (c *Command) output() io.Writer {
	if c.Output != nil {
		return c.Output
	}
	return os.Stderr
}

// isHelpFlag returns true for common help flag variants.
func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

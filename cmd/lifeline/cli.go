package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/lifeline/internal/config"
	"github.com/hpungsan/lifeline/internal/errors"
	"github.com/hpungsan/lifeline/internal/logging"
	"github.com/hpungsan/lifeline/internal/mcp"
	"github.com/hpungsan/lifeline/internal/ops"
	"github.com/hpungsan/lifeline/internal/render"
)

func cwdFlag() cli.Flag {
	return &cli.StringFlag{Name: "cwd", Usage: "Project directory (default: current directory)"}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Print JSON instead of text"}
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *ops.Env) *cli.App {
	app := &cli.App{
		Name:    "lifeline",
		Usage:   "Save and restore working context for AI coding agents",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"V"}, Usage: "Log collector diagnostics to stderr"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Suppress all logging"},
		},
		Before: func(c *cli.Context) error {
			level := logging.LevelFromFlags(c.Bool("verbose"), c.Bool("quiet"), env.Config.LogLevel)
			setLogger(env, logging.NewLogger(c.App.ErrWriter, level))
			return nil
		},
		Commands: []*cli.Command{
			saveCmd(env),
			showCmd(),
			exportCmd(),
			doctorCmd(env),
			listCmd(env),
			pruneCmd(env),
			mcpCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// projectConfig reloads configuration when --cwd names a project, so the repo config is
// found by walking upward from that directory rather than from the invocation directory.
func projectConfig(env *ops.Env) cli.BeforeFunc {
	return func(c *cli.Context) error {
		cwd := c.String("cwd")
		if cwd == "" {
			return nil
		}
		if abs, err := filepath.Abs(cwd); err == nil {
			cwd = abs
		}
		cfg, err := config.LoadWithRepo(filepath.Join(env.HomeDir, globalDirName), cwd)
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 1)
		}
		env.Config = cfg
		level := logging.LevelFromFlags(c.Bool("verbose"), c.Bool("quiet"), cfg.LogLevel)
		setLogger(env, logging.NewLogger(c.App.ErrWriter, level))
		return nil
	}
}

// setLogger points every logging consumer of env at logger.
func setLogger(env *ops.Env, logger *slog.Logger) {
	env.Logger = logger
	if env.Git != nil {
		env.Git.Logger = logger
	}
}

// saveCmd creates the save command.
func saveCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Capture a snapshot of the project into .agent-lifeline/",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "focus", Aliases: []string{"f"}, Usage: "What the next session should continue"},
			cwdFlag(),
			jsonFlag(),
		},
		Before: projectConfig(env),
		Action: func(c *cli.Context) error {
			output, err := ops.Save(c.Context, env, ops.SaveInput{
				Cwd:   c.String("cwd"),
				Focus: c.String("focus"),
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(c.App.Writer, output.Snapshot)
			}
			fmt.Fprintf(c.App.Writer, "Saved snapshot: %s\n", relativeToWd(output.Archive))
			return outputText(c.App.Writer, render.Text(output.Snapshot, true))
		},
	}
}

// showCmd creates the show command.
func showCmd() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print the latest snapshot",
		Flags: []cli.Flag{cwdFlag(), jsonFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.Show(ops.ShowInput{Cwd: c.String("cwd")})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(c.App.Writer, output.Snapshot)
			}
			return outputText(c.App.Writer, render.Text(output.Snapshot, false))
		},
	}
}

// exportCmd creates the export command.
func exportCmd() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Render the latest snapshot as a handoff document",
		Flags: []cli.Flag{
			cwdFlag(),
			&cli.BoolFlag{Name: "json", Usage: "Print the snapshot JSON instead of a document"},
			&cli.StringFlag{Name: "format", Value: "md", Usage: "Document format: md|html"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write the document to this file (relative to the project)"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("json") {
				output, err := ops.Show(ops.ShowInput{Cwd: c.String("cwd")})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, output.Snapshot)
			}

			format, err := ops.ParseExportFormat(c.String("format"))
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Export(ops.ExportInput{
				Cwd:    c.String("cwd"),
				Format: format,
				Out:    c.String("out"),
			})
			if err != nil {
				return outputError(err)
			}

			if output.Path != "" {
				fmt.Fprintf(c.App.Writer, "Exported: %s\n", relativeToWd(output.Path))
				return nil
			}
			return outputText(c.App.Writer, output.Content)
		},
	}
}

// doctorCmd creates the doctor command.
func doctorCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:   "doctor",
		Usage:  "Check git, agent state, and store availability",
		Flags:  []cli.Flag{cwdFlag(), jsonFlag()},
		Before: projectConfig(env),
		Action: func(c *cli.Context) error {
			output, err := ops.Doctor(c.Context, env, ops.DoctorInput{Cwd: c.String("cwd")})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(c.App.Writer, output)
			}
			printDoctor(c.App.Writer, output)
			return nil
		},
	}
}

// listCmd creates the list command.
func listCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List saved snapshots of the project, newest first",
		Flags: []cli.Flag{
			cwdFlag(),
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum items to return (default: config list_limit)"},
			&cli.IntFlag{Name: "offset", Value: 0, Usage: "Items to skip"},
		},
		Before: projectConfig(env),
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, env, ops.ListInput{
				Cwd:    c.String("cwd"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// pruneCmd creates the prune command.
func pruneCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Delete all but the newest archived snapshots (latest.json is kept)",
		Flags: []cli.Flag{
			cwdFlag(),
			&cli.IntFlag{Name: "keep", Aliases: []string{"k"}, Required: true, Usage: "Number of archives to keep"},
		},
		Before: projectConfig(env),
		Action: func(c *cli.Context) error {
			output, err := ops.Prune(c.Context, env, ops.PruneInput{
				Cwd:  c.String("cwd"),
				Keep: c.Int("keep"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the lifeline tools over MCP (stdio)",
		Action: func(_ *cli.Context) error {
			if err := mcp.Run(env); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON writes v to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputText writes s followed by a newline.
func outputText(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}

// outputError formats error for CLI.
func outputError(err error) error {
	if lErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", lErr.Code, lErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// printDoctor writes the human-readable doctor report.
func printDoctor(w io.Writer, d *ops.DoctorOutput) {
	fmt.Fprintln(w, "Agent Lifeline Doctor")
	fmt.Fprintf(w, "- version: %s\n", d.Version)
	fmt.Fprintf(w, "- cwd: %s\n", d.Cwd)
	fmt.Fprintf(w, "- writable store: %s\n", yesNo(d.WritableStore))
	fmt.Fprintf(w, "- git available: %s\n", yesNo(d.Git.Available))
	fmt.Fprintf(w, "- in git repo: %s\n", yesNo(d.Git.InsideRepo))
	fmt.Fprintf(w, "- %s present: %s\n", d.Claude.Dir, yesNo(d.Claude.DirExists))
	fmt.Fprintf(w, "- history.jsonl: %s\n", yesNo(d.Claude.HistoryExists))
	fmt.Fprintf(w, "- projects/: %s\n", yesNo(d.Claude.ProjectsExists))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// relativeToWd shortens path relative to the invocation directory when possible.
func relativeToWd(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil {
		return path
	}
	return rel
}

// Package cli implements the notekeeper subcommands on top of an app.App.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"notekeeper/internal/app"
	"notekeeper/internal/model"

	"go.uber.org/zap"
)

// ErrUsage is returned for unknown commands and bad arguments.
var ErrUsage = errors.New("usage error")

type command struct {
	args string
	help string
	run  func(ctx context.Context, c *cmdContext) error
	// local commands run without a signed-in user.
	local bool
}

var commands map[string]command

var clock = time.Now

func init() {
	commands = map[string]command{
		"register": {args: "-name N -email E -password P", help: "create an account and sign in", run: runRegister, local: true},
		"login":    {args: "-email E -password P", help: "sign in and fetch notes", run: runLogin, local: true},
		"logout":   {help: "forget the stored session", run: runLogout, local: true},
		"whoami":   {help: "show the signed-in user", run: runWhoami},
		"refresh":  {help: "fetch notes and events", run: runRefresh},

		"tree":   {args: "[-offline]", help: "print the note outline", run: runTree},
		"watch":  {args: "[-interval D]", help: "reprint the outline whenever the notes change", run: runWatch},
		"new":    {args: "-title T [-content C] [-parent ID]", help: "create a note", run: runNew},
		"edit":   {args: "[-title T] [-content C] ID", help: "edit a note through autosave", run: runEdit},
		"show":   {args: "[-html] ID", help: "print a note, optionally rendered", run: runShow},
		"search": {args: "QUERY", help: "search active notes", run: runSearch},

		"trash":        {help: "list trashed notes", run: runTrash},
		"rm":           {args: "ID", help: "move a note to the trash", run: runRm},
		"rm-tree":      {args: "ID", help: "move a note and its descendants to the trash", run: runRmTree},
		"restore":      {args: "ID", help: "restore a trashed note", run: runRestore},
		"purge":        {args: "ID", help: "permanently delete a trashed note", run: runPurge},
		"empty-trash":  {help: "permanently delete every trashed note", run: runEmptyTrash},
		"trash-search": {args: "QUERY", help: "search trashed notes", run: runTrashSearch},

		"tasks":        {args: "[-date D]", help: "list the tasks of a day", run: runTasks},
		"task-add":     {args: "[-date D] TEXT", help: "add a task", run: runTaskAdd},
		"task-done":    {args: "[-date D] ID", help: "toggle a task", run: runTaskDone},
		"task-rename":  {args: "[-date D] ID TEXT", help: "rename a task", run: runTaskRename},
		"task-rm":      {args: "[-date D] ID", help: "delete a task", run: runTaskRm},
		"task-clear":   {args: "[-date D]", help: "delete the completed tasks of a day", run: runTaskClear},
		"task-history": {help: "show recorded daily statistics", run: runTaskHistory},

		"events":     {args: "[-date D]", help: "list the events of a day", run: runEvents},
		"event-add":  {args: "-title T -start S [-end E] [-all-day] [-tag P] [-desc D]", help: "add an event", run: runEventAdd},
		"event-rm":   {args: "ID", help: "delete an event", run: runEventRm},
		"event-days": {args: "-from D -to D", help: "list the days holding events", run: runEventDays},

		"backup":         {args: "[-target T]", help: "upload a backup of the data directory", run: runBackup, local: true},
		"backup-list":    {args: "[-target T]", help: "list backups", run: runBackupList, local: true},
		"backup-verify":  {args: "[-target T] NAME", help: "list the files of a backup", run: runBackupVerify, local: true},
		"backup-restore": {args: "[-target T] NAME", help: "restore a backup", run: runBackupRestore, local: true},

		"version": {help: "print version information", run: runVersion, local: true},
	}
}

// Usage writes the command list to w.
func Usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: notekeeper [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s %s\t%s\n", name, commands[name].args, commands[name].help)
	}
	tw.Flush()
}

// Run executes the command named by args[0].
func Run(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) == 0 {
		Usage(out)
		return fmt.Errorf("%w: command required", ErrUsage)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		Usage(out)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	if !cmd.local {
		if _, err := a.RequireUser(); err != nil {
			return err
		}
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(out)
	a.Log.Debug("running command", zap.String("command", args[0]))
	return cmd.run(ctx, &cmdContext{app: a, out: out, flags: fs, spec: cmd, raw: args[1:]})
}

type cmdContext struct {
	app   *app.App
	out   io.Writer
	flags *flag.FlagSet
	spec  command
	raw   []string
}

// parse parses the declared flags and requires at least min positional
// arguments.
func (c *cmdContext) parse(min int) ([]string, error) {
	if err := c.flags.Parse(c.raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	rest := c.flags.Args()
	if len(rest) < min {
		return nil, fmt.Errorf("%w: %s %s", ErrUsage, c.flags.Name(), c.spec.args)
	}
	return rest, nil
}

// dayFlag declares -date, defaulting to today in the client time zone.
func (c *cmdContext) dayFlag() *string {
	return c.flags.String("date", string(model.DayOf(c.now())), "day as YYYY-MM-DD")
}

func (c *cmdContext) targetFlag() *string {
	return c.flags.String("target", "", "backup target: dir, webdav or s3")
}

func (c *cmdContext) now() time.Time {
	return clock().In(c.app.Config.Client.Location())
}

func (c *cmdContext) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *cmdContext) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
}

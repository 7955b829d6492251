package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
	"notekeeper/internal/notes"
)

func runRegister(ctx context.Context, c *cmdContext) error {
	name := c.flags.String("name", "", "display name")
	email := c.flags.String("email", "", "email address")
	password := c.flags.String("password", "", "password")
	if _, err := c.parse(0); err != nil {
		return err
	}
	u, err := c.app.Session.Register(ctx, model.Registration{Name: *name, Email: *email, Password: *password})
	if err != nil {
		return err
	}
	c.printf("registered %s <%s>\n", u.Name, u.Email)
	return nil
}

func runLogin(ctx context.Context, c *cmdContext) error {
	email := c.flags.String("email", "", "email address")
	password := c.flags.String("password", "", "password")
	if _, err := c.parse(0); err != nil {
		return err
	}
	u, err := c.app.Session.Login(ctx, model.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	if err := c.app.Sync(ctx); err != nil {
		return err
	}
	c.printf("signed in as %s <%s>, %d notes\n", u.Name, u.Email, len(c.app.Notes.Active()))
	return nil
}

func runLogout(ctx context.Context, c *cmdContext) error {
	if _, err := c.parse(0); err != nil {
		return err
	}
	if err := c.app.Session.Logout(); err != nil {
		return err
	}
	c.printf("signed out\n")
	return nil
}

func runWhoami(ctx context.Context, c *cmdContext) error {
	if _, err := c.parse(0); err != nil {
		return err
	}
	u, _ := c.app.Session.Current()
	c.printf("%s <%s>\n", u.Name, u.Email)
	return nil
}

func runRefresh(ctx context.Context, c *cmdContext) error {
	if _, err := c.parse(0); err != nil {
		return err
	}
	if err := c.app.Sync(ctx); err != nil {
		return err
	}
	c.printf("%d notes, %d trashed, %d events\n",
		len(c.app.Notes.Active()), len(c.app.Notes.Trashed()), len(c.app.Events.All()))
	return nil
}

// refresh pulls the notes before a command reads or mutates them.
func (c *cmdContext) refresh(ctx context.Context) error {
	return c.app.Notes.Refresh(ctx)
}

func runTree(ctx context.Context, c *cmdContext) error {
	offline := c.flags.Bool("offline", false, "show the last synced notes without contacting the backend")
	if _, err := c.parse(0); err != nil {
		return err
	}
	if !*offline {
		if err := c.refresh(ctx); err != nil {
			if !errors.Is(err, apperr.ErrNetwork) {
				return err
			}
			c.printf("backend unreachable, showing the last synced notes\n")
		}
	}

	c.printf("%s", c.outline())
	return nil
}

// outline renders the active notes fully expanded.
func (c *cmdContext) outline() string {
	roots := c.app.Notes.Tree()
	expanded := make(map[string]bool)
	for _, n := range c.app.Notes.Active() {
		expanded[n.ID] = true
	}
	var b strings.Builder
	for _, row := range notes.Flatten(roots, expanded) {
		fmt.Fprintf(&b, "%s- %s  [%s]\n", strings.Repeat("  ", row.Depth), displayTitle(row.Note), row.Note.ID)
	}
	fmt.Fprintf(&b, "%d notes\n", notes.Count(roots))
	return b.String()
}

func runWatch(ctx context.Context, c *cmdContext) error {
	interval := c.flags.Duration("interval", 30*time.Second, "refresh interval")
	if _, err := c.parse(0); err != nil {
		return err
	}
	if *interval <= 0 {
		return fmt.Errorf("%w: -interval must be positive", ErrUsage)
	}

	changes, stop := c.app.Notes.Subscribe()
	defer stop()
	if err := c.refresh(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.refresh(ctx); err != nil {
				if !errors.Is(err, apperr.ErrNetwork) {
					return err
				}
				c.printf("backend unreachable: %v\n", err)
			}
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			// print only when the outline moved
			if out := c.outline(); out != last {
				c.printf("%s", out)
				last = out
			}
		}
	}
}

func displayTitle(n model.Note) string {
	if n.Title == "" {
		return "(untitled)"
	}
	return n.Title
}

func runNew(ctx context.Context, c *cmdContext) error {
	title := c.flags.String("title", "", "note title")
	content := c.flags.String("content", "", "note content, markdown")
	parent := c.flags.String("parent", "", "parent note id")
	if _, err := c.parse(0); err != nil {
		return err
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	draft := model.NoteDraft{Title: *title, Content: *content}
	if *parent != "" {
		draft.ParentID = parent
	}
	n, err := c.app.Notes.Create(ctx, draft)
	if err != nil {
		return err
	}
	c.printf("created %s\n", n.ID)
	return nil
}

func runEdit(ctx context.Context, c *cmdContext) error {
	title := c.flags.String("title", "", "new title")
	content := c.flags.String("content", "", "new content")
	args, err := c.parse(1)
	if err != nil {
		return err
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	n, err := c.app.Notes.Get(args[0])
	if err != nil {
		return err
	}

	// unset flags keep the current values
	newTitle, newContent := n.Title, n.Content
	c.flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			newTitle = *title
		case "content":
			newContent = *content
		}
	})

	if err := c.app.Autosave.Edit(n.ID, newTitle, newContent); err != nil {
		return err
	}
	if err := c.app.Autosave.Flush(ctx); err != nil {
		return err
	}
	c.printf("saved %s\n", n.ID)
	return nil
}

func runShow(ctx context.Context, c *cmdContext) error {
	html := c.flags.Bool("html", false, "render the content to HTML")
	args, err := c.parse(1)
	if err != nil {
		return err
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	n, err := c.app.Notes.Get(args[0])
	if err != nil {
		return err
	}

	c.printf("# %s\n", displayTitle(n))
	c.printf("modified %s\n\n", n.LastModified.In(c.app.Config.Client.Location()).Format("2006-01-02 15:04"))
	if !*html {
		c.printf("%s\n", n.Content)
		return nil
	}
	out, err := c.app.Markdown.Render(n.Content)
	if err != nil {
		return err
	}
	c.printf("%s\n", out)
	return nil
}

func runSearch(ctx context.Context, c *cmdContext) error {
	args, err := c.parse(1)
	if err != nil {
		return err
	}
	found, err := c.app.Notes.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	c.listNotes(found)
	return nil
}

func (c *cmdContext) listNotes(list []model.Note) {
	tw := c.table()
	for _, n := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", n.ID, displayTitle(n), n.LastModified.In(c.app.Config.Client.Location()).Format("2006-01-02 15:04"))
	}
	tw.Flush()
	c.printf("%d notes\n", len(list))
}

func runTrash(ctx context.Context, c *cmdContext) error {
	if _, err := c.parse(0); err != nil {
		return err
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	c.listNotes(c.app.Trash.List())
	return nil
}

func runRm(ctx context.Context, c *cmdContext) error {
	args, err := c.parse(1)
	if err != nil {
		return err
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	n, err := c.app.Trash.SoftDelete(ctx, args[0])
	if err != nil {
		return err
	}
	c.printf("moved %s to the trash\n", n.ID)
	return nil
}

func runRmTree(ctx context.Context, c *cmdContext) error {
	args, err := c.parse(1)
	if err != nil {
		return err
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	ids, err := c.app.Trash.SoftDeleteSubtree(ctx, args[0])
	c.printf("moved %d notes to the trash\n", len(ids))
	return err
}

func runRestore(ctx context.Context, c *cmdContext) error {
	args, err := c.parse(1)
	if err != nil {
		return err
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	n, err := c.app.Trash.Restore(ctx, args[0])
	if err != nil {
		return err
	}
	c.printf("restored %s\n", n.ID)
	return nil
}

func runPurge(ctx context.Context, c *cmdContext) error {
	args, err := c.parse(1)
	if err != nil {
		return err
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	if err := c.app.Trash.PermanentDelete(ctx, args[0]); err != nil {
		return err
	}
	c.printf("deleted %s\n", args[0])
	return nil
}

func runEmptyTrash(ctx context.Context, c *cmdContext) error {
	if _, err := c.parse(0); err != nil {
		return err
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	ids, err := c.app.Trash.EmptyTrash(ctx)
	c.printf("deleted %d notes\n", len(ids))
	return err
}

func runTrashSearch(ctx context.Context, c *cmdContext) error {
	args, err := c.parse(1)
	if err != nil {
		return err
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	c.listNotes(c.app.Trash.Search(strings.Join(args, " ")))
	return nil
}

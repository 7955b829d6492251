package cli

import (
	"context"
	"fmt"

	"notekeeper/internal/version"
)

func runBackup(ctx context.Context, c *cmdContext) error {
	target := c.targetFlag()
	if _, err := c.parse(0); err != nil {
		return err
	}
	t, err := c.app.Target(*target)
	if err != nil {
		return err
	}
	// pending edits belong in the archive
	if err := c.app.Autosave.Flush(ctx); err != nil {
		return err
	}
	name, err := c.app.Backup.Backup(ctx, t)
	if err != nil {
		return err
	}
	c.printf("uploaded %s to %s\n", name, t.Name())
	return nil
}

func runBackupList(ctx context.Context, c *cmdContext) error {
	target := c.targetFlag()
	if _, err := c.parse(0); err != nil {
		return err
	}
	t, err := c.app.Target(*target)
	if err != nil {
		return err
	}
	list, err := c.app.Backup.List(ctx, t)
	if err != nil {
		return err
	}
	tw := c.table()
	for _, e := range list {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Name, e.Size, e.ModTime.Format(dateTimeLayout))
	}
	tw.Flush()
	c.printf("%d backups on %s\n", len(list), t.Name())
	return nil
}

func runBackupVerify(ctx context.Context, c *cmdContext) error {
	target := c.targetFlag()
	args, err := c.parse(1)
	if err != nil {
		return err
	}
	t, err := c.app.Target(*target)
	if err != nil {
		return err
	}
	files, err := c.app.Backup.Verify(ctx, t, args[0])
	if err != nil {
		return err
	}
	for _, f := range files {
		c.printf("%s\n", f)
	}
	c.printf("%s is valid, %d files\n", args[0], len(files))
	return nil
}

func runBackupRestore(ctx context.Context, c *cmdContext) error {
	target := c.targetFlag()
	args, err := c.parse(1)
	if err != nil {
		return err
	}
	t, err := c.app.Target(*target)
	if err != nil {
		return err
	}
	safety, err := c.app.Backup.Restore(ctx, t, args[0])
	if err != nil {
		return err
	}
	c.printf("restored %s, previous data saved to %s\n", args[0], safety)
	return nil
}

func runVersion(ctx context.Context, c *cmdContext) error {
	if _, err := c.parse(0); err != nil {
		return err
	}
	c.printf("%s\n", version.GetInfo())
	return nil
}

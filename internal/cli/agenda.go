package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

func parseDay(s string) (model.Day, error) {
	return model.ParseDay(strings.TrimSpace(s))
}

func runTasks(ctx context.Context, c *cmdContext) error {
	date := c.dayFlag()
	if _, err := c.parse(0); err != nil {
		return err
	}
	day, err := parseDay(*date)
	if err != nil {
		return err
	}
	list, err := c.app.Tasks.List(ctx, day)
	if err != nil {
		return err
	}

	tw := c.table()
	for _, t := range list {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(tw, "[%s]\t%s\t%s\n", mark, t.Text, t.ID)
	}
	tw.Flush()
	s := c.app.Tasks.Stats(day)
	c.printf("%s: %d/%d done, daily limit %d\n", day, s.Completed, s.Total, s.Limit)
	return nil
}

// loadDay lists the day so the task commands can address its tasks by id.
func (c *cmdContext) loadDay(ctx context.Context, date string) (model.Day, error) {
	day, err := parseDay(date)
	if err != nil {
		return "", err
	}
	if _, err := c.app.Tasks.List(ctx, day); err != nil {
		return "", err
	}
	return day, nil
}

func runTaskAdd(ctx context.Context, c *cmdContext) error {
	date := c.dayFlag()
	args, err := c.parse(1)
	if err != nil {
		return err
	}
	day, err := parseDay(*date)
	if err != nil {
		return err
	}
	t, err := c.app.Tasks.Add(ctx, day, strings.Join(args, " "))
	if err != nil {
		return err
	}
	c.printf("added %s\n", t.ID)
	return nil
}

func runTaskDone(ctx context.Context, c *cmdContext) error {
	date := c.dayFlag()
	args, err := c.parse(1)
	if err != nil {
		return err
	}
	if _, err := c.loadDay(ctx, *date); err != nil {
		return err
	}
	t, err := c.app.Tasks.Toggle(ctx, args[0])
	if err != nil {
		return err
	}
	state := "open"
	if t.Completed {
		state = "done"
	}
	c.printf("%s is %s\n", t.ID, state)
	return nil
}

func runTaskRename(ctx context.Context, c *cmdContext) error {
	date := c.dayFlag()
	args, err := c.parse(2)
	if err != nil {
		return err
	}
	if _, err := c.loadDay(ctx, *date); err != nil {
		return err
	}
	t, err := c.app.Tasks.Rename(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	c.printf("renamed %s\n", t.ID)
	return nil
}

func runTaskRm(ctx context.Context, c *cmdContext) error {
	date := c.dayFlag()
	args, err := c.parse(1)
	if err != nil {
		return err
	}
	if _, err := c.loadDay(ctx, *date); err != nil {
		return err
	}
	if err := c.app.Tasks.Delete(ctx, args[0]); err != nil {
		return err
	}
	c.printf("deleted %s\n", args[0])
	return nil
}

func runTaskClear(ctx context.Context, c *cmdContext) error {
	date := c.dayFlag()
	if _, err := c.parse(0); err != nil {
		return err
	}
	day, err := parseDay(*date)
	if err != nil {
		return err
	}
	ids, err := c.app.Tasks.ClearCompleted(ctx, day)
	c.printf("deleted %d completed tasks\n", len(ids))
	return err
}

func runTaskHistory(ctx context.Context, c *cmdContext) error {
	if _, err := c.parse(0); err != nil {
		return err
	}
	hist, err := c.app.Tasks.History()
	if err != nil {
		return err
	}
	tw := c.table()
	fmt.Fprintln(tw, "DAY\tDONE\tTOTAL\tRATE")
	for _, s := range hist {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.0f%%\n", s.Day, s.Completed, s.Total, s.CompletionRate*100)
	}
	return tw.Flush()
}

func runEvents(ctx context.Context, c *cmdContext) error {
	date := c.dayFlag()
	if _, err := c.parse(0); err != nil {
		return err
	}
	day, err := parseDay(*date)
	if err != nil {
		return err
	}
	if err := c.app.Events.Refresh(ctx); err != nil {
		return err
	}
	list, err := c.app.Events.ForDate(day)
	if err != nil {
		return err
	}

	loc := c.app.Config.Client.Location()
	tw := c.table()
	for _, e := range list {
		when := "all day"
		if !e.AllDay {
			when = e.StartDateTime.In(loc).Format("15:04") + "-" + e.EndDateTime.In(loc).Format("15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", when, e.Tag, e.Title, e.ID)
	}
	tw.Flush()
	c.printf("%d events on %s\n", len(list), day)
	return nil
}

func (c *cmdContext) parseTime(field, s string) (time.Time, error) {
	loc := c.app.Config.Client.Location()
	if t, err := time.ParseInLocation(dateTimeLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Validation(field, "must be formatted as YYYY-MM-DD or YYYY-MM-DD HH:MM")
}

func runEventAdd(ctx context.Context, c *cmdContext) error {
	title := c.flags.String("title", "", "event title")
	start := c.flags.String("start", "", "start, YYYY-MM-DD HH:MM")
	end := c.flags.String("end", "", "end, YYYY-MM-DD HH:MM; defaults to one hour after start")
	allDay := c.flags.Bool("all-day", false, "all-day event")
	tag := c.flags.String("tag", "", "priority: none, low, medium or high")
	desc := c.flags.String("desc", "", "description")
	if _, err := c.parse(0); err != nil {
		return err
	}

	draft := model.EventDraft{Title: *title, Description: *desc, AllDay: *allDay}
	var err error
	if draft.Tag, err = model.ParsePriority(*tag); err != nil {
		return err
	}
	if draft.StartDateTime, err = c.parseTime("start_date_time", *start); err != nil {
		return err
	}
	switch {
	case *end != "":
		if draft.EndDateTime, err = c.parseTime("end_date_time", *end); err != nil {
			return err
		}
	case *allDay:
		// all-day events cover their end day
		draft.EndDateTime = draft.StartDateTime
	default:
		draft.EndDateTime = draft.StartDateTime.Add(time.Hour)
	}

	if err := c.app.Events.Refresh(ctx); err != nil {
		return err
	}
	e, err := c.app.Events.Create(ctx, draft)
	if err != nil {
		return err
	}
	c.printf("added %s\n", e.ID)
	return nil
}

func runEventRm(ctx context.Context, c *cmdContext) error {
	args, err := c.parse(1)
	if err != nil {
		return err
	}
	if err := c.app.Events.Refresh(ctx); err != nil {
		return err
	}
	if err := c.app.Events.Delete(ctx, args[0]); err != nil {
		return err
	}
	c.printf("deleted %s\n", args[0])
	return nil
}

func runEventDays(ctx context.Context, c *cmdContext) error {
	today := model.DayOf(c.now())
	from := c.flags.String("from", string(today), "first day")
	to := c.flags.String("to", string(model.DayOf(c.now().AddDate(0, 0, 30))), "last day")
	if _, err := c.parse(0); err != nil {
		return err
	}
	first, err := parseDay(*from)
	if err != nil {
		return err
	}
	last, err := parseDay(*to)
	if err != nil {
		return err
	}
	if err := c.app.Events.Refresh(ctx); err != nil {
		return err
	}
	days, err := c.app.Events.MarkedDays(first, last)
	if err != nil {
		return err
	}
	for _, d := range days {
		c.printf("%s\n", d)
	}
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethos-finder/ethos/internal/history"
	"github.com/ethos-finder/ethos/internal/output"
)

// HistoryCmd holds search history subcommands
type HistoryCmd struct {
	List  HistoryListCmd  `cmd:"" default:"withargs" help:"List recent searches"`
	Show  HistoryShowCmd  `cmd:"" help:"Print the full result of a past search"`
	Clear HistoryClearCmd `cmd:"" help:"Delete all recorded searches"`
}

// HistoryListCmd implements history list
type HistoryListCmd struct {
	Limit int `help:"Maximum number of searches to show (0 for all)" short:"n" default:"20"`
}

// historyRow is one line of history output
type historyRow struct {
	ID      string
	When    string
	Kind    string
	Query   string
	Method  string
	Fields  int
	Errors  int
	Elapsed string
}

func historyRows(entries []history.Entry) []historyRow {
	rows := make([]historyRow, len(entries))
	for i, e := range entries {
		rows[i] = historyRow{
			ID:      e.ID,
			When:    e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			Kind:    string(e.Kind),
			Query:   e.Query,
			Method:  e.Method,
			Fields:  e.Fields,
			Errors:  e.Errors,
			Elapsed: e.Duration.Round(time.Millisecond).String(),
		}
	}
	return rows
}

// Run executes the list command
func (cmd *HistoryListCmd) Run(sp *ServiceProvider, fp *FormatterProvider) error {
	store, err := sp.History()
	if err != nil {
		return err
	}

	entries, err := store.List(context.Background(), cmd.Limit)
	if err != nil {
		return output.NewCLIError(output.ExitIOError, err.Error())
	}
	if fp.Structured() {
		return fp.Formatter.PrintList(entries, nil)
	}

	cols := []output.Column{
		{Name: "ID", Key: "ID"},
		{Name: "When", Key: "When"},
		{Name: "Kind", Key: "Kind"},
		{Name: "Query", Key: "Query", Width: 40},
		{Name: "Method", Key: "Method"},
		{Name: "Fields", Key: "Fields"},
		{Name: "Errors", Key: "Errors"},
		{Name: "Elapsed", Key: "Elapsed"},
	}
	return fp.Formatter.PrintList(historyRows(entries), cols)
}

// HistoryShowCmd implements history show
type HistoryShowCmd struct {
	ID string `arg:"" help:"Search ID from history list"`
}

// Run executes the show command
func (cmd *HistoryShowCmd) Run(sp *ServiceProvider, fp *FormatterProvider) error {
	store, err := sp.History()
	if err != nil {
		return err
	}

	res, err := store.Get(context.Background(), cmd.ID)
	if errors.Is(err, history.ErrNotFound) {
		return &output.CLIError{
			ExitCode: output.ExitNotFound,
			Message:  err.Error(),
			Hint:     "Run: ethos history",
		}
	}
	if err != nil {
		return output.NewCLIError(output.ExitIOError, err.Error())
	}
	return fp.Formatter.PrintResult(res)
}

// HistoryClearCmd implements history clear
type HistoryClearCmd struct{}

// Run executes the clear command
func (cmd *HistoryClearCmd) Run(sp *ServiceProvider, globals *Globals) error {
	if !globals.Force && globals.Interactive() && !confirm(os.Stdin, "Delete all recorded searches?") {
		fmt.Fprintf(os.Stderr, "Aborted\n")
		return nil
	}

	store, err := sp.History()
	if err != nil {
		return err
	}

	n, err := store.Clear(context.Background())
	if err != nil {
		return output.NewCLIError(output.ExitIOError, err.Error())
	}

	fmt.Fprintf(os.Stderr, "Deleted %d searches\n", n)
	return nil
}

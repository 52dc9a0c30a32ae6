// Package cli implements the one-shot commands that run a single sync against
// the configured cache and print the resulting list.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/shelfsync/internal/config"
	"github.com/mrlokans/shelfsync/internal/entities"
	"github.com/mrlokans/shelfsync/internal/entrypoint"
	"github.com/mrlokans/shelfsync/internal/logging"
	"github.com/mrlokans/shelfsync/internal/syncer"
)

// FeedCommand refreshes or extends the home feed.
type FeedCommand struct {
	Config  *config.Config
	Force   bool
	More    bool
	Verbose bool
	Out     io.Writer
}

func NewFeedCommand(cfg *config.Config) *FeedCommand {
	return &FeedCommand{Config: cfg, Out: os.Stdout}
}

func (cmd *FeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("feed", flag.ContinueOnError)

	fs.StringVar(&cmd.Config.Database.Path, "db", cmd.Config.Database.Path, "Path to the offline cache database")
	fs.BoolVar(&cmd.Force, "force", false, "Refetch page 1 even if the cached feed is still fresh")
	fs.BoolVar(&cmd.More, "more", false, "Append the next page instead of refreshing page 1")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s feed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Sync the home feed once and print the cached list.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Force && cmd.More {
		return fmt.Errorf("-force and -more cannot be combined")
	}
	return nil
}

func (cmd *FeedCommand) Run(ctx context.Context) error {
	logging.SetVerbose(cmd.Verbose)

	catalog, err := entrypoint.OpenCatalog(cmd.Config, true)
	if err != nil {
		return err
	}
	defer catalog.Close()

	var res syncer.Result
	if cmd.More {
		res, err = catalog.Engine.LoadMoreFeed(ctx)
	} else {
		res, err = catalog.Engine.RefreshFeed(ctx, cmd.Force)
	}
	if err != nil {
		return describeFailure(err)
	}

	books, err := catalog.Engine.Feed(ctx)
	if err != nil {
		return fmt.Errorf("load feed: %w", err)
	}

	printResult(cmd.Out, "Feed", res, books)
	return nil
}

// SearchCommand refreshes or extends a search list.
type SearchCommand struct {
	Config  *config.Config
	Query   string
	More    bool
	Verbose bool
	Out     io.Writer
}

func NewSearchCommand(cfg *config.Config) *SearchCommand {
	return &SearchCommand{Config: cfg, Out: os.Stdout}
}

func (cmd *SearchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)

	fs.StringVar(&cmd.Query, "q", "", "Search query (required)")
	fs.StringVar(&cmd.Config.Database.Path, "db", cmd.Config.Database.Path, "Path to the offline cache database")
	fs.BoolVar(&cmd.More, "more", false, "Append the next page instead of refreshing page 1")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s search -q <query> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Sync one page of search results and print the cached list.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s search -q \"ursula le guin\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s search -q \"ursula le guin\" -more\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Query == "" {
		return fmt.Errorf("required flag -q not provided")
	}
	return nil
}

func (cmd *SearchCommand) Run(ctx context.Context) error {
	logging.SetVerbose(cmd.Verbose)

	catalog, err := entrypoint.OpenCatalog(cmd.Config, true)
	if err != nil {
		return err
	}
	defer catalog.Close()

	var res syncer.Result
	if cmd.More {
		res, err = catalog.Engine.LoadMoreSearch(ctx, cmd.Query)
	} else {
		res, err = catalog.Engine.RefreshSearch(ctx, cmd.Query)
	}
	if err != nil {
		return describeFailure(err)
	}

	books, err := catalog.Engine.SearchResults(ctx, cmd.Query)
	if err != nil {
		return fmt.Errorf("load search results: %w", err)
	}

	printResult(cmd.Out, fmt.Sprintf("Search %q", cmd.Query), res, books)
	return nil
}

func describeFailure(err error) error {
	if errors.Is(err, syncer.ErrCacheExhausted) {
		return fmt.Errorf("remote catalog unavailable and nothing cached yet: %w", err)
	}
	return err
}

func printResult(w io.Writer, title string, res syncer.Result, books []entities.Book) {
	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "Status: %s", res.Status)
	if res.Status != entities.SyncStatusSkipped {
		fmt.Fprintf(w, " (page %d, %d added)", res.Page, res.Added)
	}
	fmt.Fprintln(w)
	if res.Cause != nil {
		fmt.Fprintf(w, "Warning: serving cached data: %v\n", res.Cause)
	}
	fmt.Fprintln(w)

	if len(books) == 0 {
		fmt.Fprintln(w, "No books cached")
		return
	}
	for i, book := range books {
		year := ""
		if book.FirstPublishYear != nil {
			year = fmt.Sprintf(" (%d)", *book.FirstPublishYear)
		}
		fmt.Fprintf(w, "%3d. %s%s by %s [%s]\n", i+1, book.Title, year, book.Author, book.ID)
	}
}

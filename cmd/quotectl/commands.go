package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/jsamuelsen/quote-keeper/internal/app"
	"github.com/jsamuelsen/quote-keeper/internal/bootstrap"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/platform/config"
)

// environment is shared by every command.
type environment struct {
	profile string
	stdout  io.Writer
	stderr  io.Writer

	// load overrides configuration loading in tests.
	load func(profile string) (*config.Config, error)
}

func (e *environment) config() (*config.Config, error) {
	profile := e.profile
	if profile == "" {
		profile = "local"
	}

	load := e.load
	if load == nil {
		load = config.Load
	}

	cfg, err := load(profile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// run opens the store, hands the service to fn and closes the store.
// Errors are printed to stderr and mapped to exit status 1.
func (e *environment) run(ctx context.Context, fn func(*app.QuoteService) error) subcommands.ExitStatus {
	err := e.withService(ctx, fn)
	if err != nil {
		fmt.Fprintln(e.stderr, "error:", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

func (e *environment) withService(ctx context.Context, fn func(*app.QuoteService) error) (err error) {
	cfg, err := e.config()
	if err != nil {
		return err
	}

	logger := bootstrap.NewLogger(cfg, e.stderr)

	components, err := bootstrap.Build(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, components.Close())
	}()

	return fn(components.Service)
}

func commands(env *environment) []subcommands.Command {
	return []subcommands.Command{
		&listCmd{env: env},
		&randomCmd{env: env},
		&addCmd{env: env},
		&categoriesCmd{env: env},
		&exportCmd{env: env},
		&importCmd{env: env},
		&syncCmd{env: env},
	}
}

func printQuote(w io.Writer, q domain.Quote) {
	fmt.Fprintf(w, "[%s] %s\n", q.Category, q.Text)
}

type listCmd struct {
	env      *environment
	category string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "print the stored quotes" }
func (*listCmd) Usage() string {
	return `quotectl list [-category <name>]

  Prints every quote in insertion order, optionally limited to one category.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.category, "category", domain.CategoryAll, "category to list")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(s *app.QuoteService) error {
		for _, q := range s.ListQuotes(ctx, c.category) {
			printQuote(c.env.stdout, q)
		}

		return nil
	})
}

type randomCmd struct {
	env      *environment
	category string
}

func (*randomCmd) Name() string     { return "random" }
func (*randomCmd) Synopsis() string { return "print one random quote" }
func (*randomCmd) Usage() string {
	return `quotectl random [-category <name>]
`
}

func (c *randomCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.category, "category", domain.CategoryAll, "category to pick from")
}

func (c *randomCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(s *app.QuoteService) error {
		q, err := s.RandomQuote(ctx, c.category)
		if domain.IsNotFound(err) {
			return errors.New("no quotes available")
		}

		if err != nil {
			return err
		}

		printQuote(c.env.stdout, q)

		return nil
	})
}

type addCmd struct {
	env      *environment
	text     string
	category string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a quote" }
func (*addCmd) Usage() string {
	return `quotectl add -text <text> -category <name>

  Appends a quote and persists the collection. The quote is also published
  to the first source with a publish path, if one is configured.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.text, "text", "", "quote text")
	f.StringVar(&c.category, "category", "", "quote category")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.text == "" || c.category == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	return c.env.run(ctx, func(s *app.QuoteService) error {
		q, err := s.AddQuote(ctx, app.AddQuoteInput{Text: c.text, Category: c.category})
		if err != nil {
			return err
		}

		printQuote(c.env.stdout, q)

		return nil
	})
}

type categoriesCmd struct {
	env *environment
}

func (*categoriesCmd) Name() string             { return "categories" }
func (*categoriesCmd) Synopsis() string         { return "print the distinct categories" }
func (*categoriesCmd) Usage() string            { return "quotectl categories\n" }
func (*categoriesCmd) SetFlags(_ *flag.FlagSet) {}

func (c *categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(s *app.QuoteService) error {
		for _, category := range s.Categories(ctx) {
			fmt.Fprintln(c.env.stdout, category)
		}

		return nil
	})
}

type exportCmd struct {
	env    *environment
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the collection as JSON" }
func (*exportCmd) Usage() string {
	return `quotectl export [-o <file>]

  Writes the collection as an indented JSON array to stdout or to a file.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output file (defaults to stdout)")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(s *app.QuoteService) error {
		data, err := s.ExportQuotes(ctx)
		if err != nil {
			return err
		}

		if c.output == "" {
			_, err = fmt.Fprintln(c.env.stdout, string(data))
			return err
		}

		return os.WriteFile(c.output, data, 0o600)
	})
}

type importCmd struct {
	env *environment
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "append quotes from a JSON file" }
func (*importCmd) Usage() string {
	return `quotectl import <file>

  Appends every record of a JSON array of quotes. A malformed file changes
  nothing.
`
}
func (*importCmd) SetFlags(_ *flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(f.Arg(0))
	if err != nil {
		fmt.Fprintln(c.env.stderr, "error:", err)
		return subcommands.ExitFailure
	}

	return c.env.run(ctx, func(s *app.QuoteService) error {
		added, err := s.ImportQuotes(ctx, data)
		if err != nil {
			return err
		}

		fmt.Fprintf(c.env.stdout, "imported %d quotes\n", added)

		return nil
	})
}

type syncCmd struct {
	env *environment
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "reconcile with the configured remote sources" }
func (*syncCmd) Usage() string {
	return `quotectl sync

  Fetches every source in services.quotes once and merges the results.
  Exits with status 1 when any source failed; the other sources are still
  applied.
`
}
func (*syncCmd) SetFlags(_ *flag.FlagSet) {}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(s *app.QuoteService) error {
		result, err := s.Sync(ctx)

		fmt.Fprintf(c.env.stdout, "sources=%d failed=%d added=%d updated=%d conflicts=%d\n",
			result.Sources, result.Failed, result.Added, result.Updated, len(result.Conflicts))

		return err
	})
}

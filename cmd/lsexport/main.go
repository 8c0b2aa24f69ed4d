/*Offline export / restore tooling for the SQLite ledger.*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/llabyellov/LouerSimple/internal/core"
	"github.com/llabyellov/LouerSimple/internal/export"
	"github.com/llabyellov/LouerSimple/internal/storage"
)

// globals holds options shared by every subcommand
type globals struct {
	DB string `help:"Path to the SQLite ledger database." default:"./data/louersimple.db"`
}

var cli struct {
	Globals globals `embed:""`

	CSV     csvCmd     `cmd:"" help:"Export the ledger as a French spreadsheet CSV."`
	JSON    jsonCmd    `cmd:"" help:"Export the ledger as a raw JSON backup."`
	Restore restoreCmd `cmd:"" help:"Replace the ledger content with a JSON backup."`
}

type csvCmd struct {
	Out string `help:"Output file (stdout when omitted)." default:"-"`
}

type jsonCmd struct {
	Out string `help:"Output file (stdout when omitted)." default:"-"`
}

type restoreCmd struct {
	File string `arg:"" help:"JSON backup file to restore from."`
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" || path == "" {
		return os.Stdout, nil
	}
	return os.Create(path)
}

func loadLedger(g *globals) ([]core.Transaction, *storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(g.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	transactions, err := repo.LoadAll(context.Background())
	if err != nil {
		repo.Close()
		return nil, nil, fmt.Errorf("load ledger: %w", err)
	}
	core.SortByDateDesc(transactions)
	return transactions, repo, nil
}

func (c *csvCmd) Run(g *globals) error {
	transactions, repo, err := loadLedger(g)
	if err != nil {
		return err
	}
	defer repo.Close()

	out, err := openOutput(c.Out)
	if err != nil {
		return err
	}
	if out != os.Stdout {
		defer out.Close()
	}
	return export.WriteCSV(out, transactions)
}

func (c *jsonCmd) Run(g *globals) error {
	transactions, repo, err := loadLedger(g)
	if err != nil {
		return err
	}
	defer repo.Close()

	out, err := openOutput(c.Out)
	if err != nil {
		return err
	}
	if out != os.Stdout {
		defer out.Close()
	}
	return export.WriteJSON(out, transactions)
}

func (c *restoreCmd) Run(g *globals) error {
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	// The whole file is validated before a single row is touched.
	transactions, err := export.ReadJSON(f)
	if err != nil {
		return err
	}

	repo, err := storage.NewSQLiteRepository(g.DB)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer repo.Close()

	ctx := context.Background()
	purged, err := repo.Purge(ctx)
	if err != nil {
		return err
	}
	for i, t := range transactions {
		if _, err := repo.Append(ctx, t); err != nil {
			return fmt.Errorf("restore record %d: %w", i, err)
		}
	}

	fmt.Fprintf(os.Stderr, "restored %d transactions (replaced %d rows)\n", len(transactions), purged)
	return nil
}

func main() {
	ctx := kong.Parse(&cli)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}

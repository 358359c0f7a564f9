package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/brensch/campcheck/internal/config"
	"github.com/brensch/campcheck/internal/db"
)

var sqlFlags struct {
	file string
	csv  bool
	rw   bool
	args []string
}

func init() {
	sqlCmd.Flags().StringVarP(&sqlFlags.file, "file", "f", "", "read the statement from a file")
	sqlCmd.Flags().BoolVar(&sqlFlags.csv, "csv", false, "print rows as CSV")
	sqlCmd.Flags().BoolVar(&sqlFlags.rw, "rw", false, "open the database read-write")
	sqlCmd.Flags().StringArrayVar(&sqlFlags.args, "arg", nil, "statement argument (repeatable)")
	rootCmd.AddCommand(sqlCmd)
}

var sqlCmd = &cobra.Command{
	Use:   "sql [statement]",
	Short: "Runs a SQL statement against the lookup and watch database.",
	Long:  "Runs a SQL statement given as an argument, with --file, or on stdin. The database opens read-only unless --rw is set.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		stmt, err := readStatement(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		open := db.OpenReadOnly
		if sqlFlags.rw {
			open = db.Open
		}
		store, err := open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer store.Close()

		stmtArgs := make([]any, len(sqlFlags.args))
		for i, a := range sqlFlags.args {
			stmtArgs[i] = a
		}
		res, err := store.Exec(cmd.Context(), stmt, stmtArgs...)
		if err != nil {
			return err
		}
		if res.Columns == nil {
			fmt.Printf("OK (%d rows affected)\n", res.Affected)
			return nil
		}

		t := newTable()
		header := make(table.Row, len(res.Columns))
		for i, c := range res.Columns {
			header[i] = c
		}
		t.AppendHeader(header)
		for _, vals := range res.Values {
			t.AppendRow(table.Row(vals))
		}
		if sqlFlags.csv {
			t.RenderCSV()
			return nil
		}
		t.AppendFooter(table.Row{fmt.Sprintf("%d rows", len(res.Values))})
		t.Render()
		return nil
	},
}

func readStatement(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	if sqlFlags.file != "" {
		b, err := os.ReadFile(sqlFlags.file)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	if f, ok := stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", fmt.Errorf("no SQL provided, pass a statement, --file or pipe it on stdin")
		}
	}
	var sb strings.Builder
	sc := bufio.NewScanner(stdin)
	for sc.Scan() {
		sb.WriteString(sc.Text())
		sb.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("stdin: %w", err)
	}
	stmt := strings.TrimSpace(sb.String())
	if stmt == "" {
		return "", fmt.Errorf("no SQL provided, pass a statement, --file or pipe it on stdin")
	}
	return stmt, nil
}

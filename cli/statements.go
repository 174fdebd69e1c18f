package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"hermannm.dev/widgets/config"
	"hermannm.dev/widgets/db/sqlite"
	"hermannm.dev/widgets/report"
	"hermannm.dev/wrap"
)

func newStatementsCommand(config config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statements",
		Short: "Manage the SQL statement library",
	}

	var scope string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List library statements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(config, func(store *sqlite.Store) error {
				statements, err := store.ListStatements(cmd.Context(), scope)
				if err != nil {
					return err
				}

				if len(statements) == 0 {
					cmd.Println("No statements")
					return nil
				}

				writer := newTable(cmd.OutOrStdout())
				writer.AppendHeader(table.Row{"ID", "Scope", "Name", "SQL"})
				writer.SetColumnConfigs([]table.ColumnConfig{
					{Name: "SQL", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
				})
				for _, statement := range statements {
					writer.AppendRow(table.Row{
						statement.ID,
						statement.Scope,
						statement.Name,
						strings.Join(strings.Fields(statement.SQL), " "),
					})
				}
				writer.Render()
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&scope, "scope", "", "only list statements in this scope")

	var statement report.Statement
	var sqlFile string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a statement to the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sqlFile != "" {
				content, err := os.ReadFile(sqlFile)
				if err != nil {
					return wrap.Errorf(err, "failed to read SQL file '%s'", sqlFile)
				}
				statement.SQL = string(content)
			}
			if strings.TrimSpace(statement.SQL) == "" {
				return errors.New("statement SQL is blank (use --sql or --file)")
			}

			return withStore(config, func(store *sqlite.Store) error {
				saved, err := store.SaveStatement(cmd.Context(), statement)
				if err != nil {
					return err
				}

				cmd.Printf("Added statement '%s' with ID %s\n", saved.Name, saved.ID)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&statement.ID, "id", "", "statement ID (generated if blank)")
	addCmd.Flags().StringVar(&statement.Name, "name", "", "statement name")
	addCmd.Flags().StringVar(&statement.Scope, "scope", "", "statement scope")
	addCmd.Flags().StringVar(&statement.Description, "description", "", "statement description")
	addCmd.Flags().StringVar(&statement.SQL, "sql", "", "SQL text")
	addCmd.Flags().StringVar(&sqlFile, "file", "", "read SQL text from this file")
	_ = addCmd.MarkFlagRequired("name")

	cmd.AddCommand(listCmd, addCmd)
	return cmd
}

package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/crudweb/internal/sqlite"
	"github.com/mesh-intelligence/crudweb/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(a.flags.output); err != nil {
				return err
			}
			return a.withRecords(func(_ *sqlite.Backend, records types.RecordTable) error {
				all, err := records.List(cmd.Context())
				if err != nil {
					return sysError(fmt.Errorf("list records: %w", err))
				}
				return printRecords(cmd.OutOrStdout(), a.flags.output, all)
			})
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(a.flags.output); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withRecords(func(_ *sqlite.Backend, records types.RecordTable) error {
				r, err := records.Get(cmd.Context(), id)
				if err != nil {
					return recordError("get", id, err)
				}
				return printRecord(cmd.OutOrStdout(), a.flags.output, r)
			})
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(a.flags.output); err != nil {
				return err
			}
			return a.withRecords(func(_ *sqlite.Backend, records types.RecordTable) error {
				id, err := records.Insert(cmd.Context(), title, description)
				if err != nil {
					return sysError(fmt.Errorf("create record: %w", err))
				}
				return printRecord(cmd.OutOrStdout(), a.flags.output, types.Record{
					ID:          id,
					Title:       title,
					Description: description,
				})
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "record title")
	cmd.Flags().StringVar(&description, "description", "", "record description")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Overwrite a record's title and description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(a.flags.output); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withRecords(func(_ *sqlite.Backend, records types.RecordTable) error {
				if err := records.Update(cmd.Context(), id, title, description); err != nil {
					return recordError("update", id, err)
				}
				return printRecord(cmd.OutOrStdout(), a.flags.output, types.Record{
					ID:          id,
					Title:       title,
					Description: description,
				})
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withRecords(func(_ *sqlite.Backend, records types.RecordTable) error {
				if err := records.Delete(cmd.Context(), id); err != nil {
					return recordError("delete", id, err)
				}
				writeLine(cmd.OutOrStdout(), "deleted record %d", id)
				return nil
			})
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var fieldName string

	cmd := &cobra.Command{
		Use:   "search <substring>",
		Short: "Find records containing a substring",
		Long:  "Find records whose title, description, or either contains the given\nsubstring. Matching is case-sensitive; an empty substring matches every record.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(a.flags.output); err != nil {
				return err
			}
			field, err := types.ParseSearchField(fieldName)
			if err != nil {
				return userError(err)
			}
			return a.withRecords(func(_ *sqlite.Backend, records types.RecordTable) error {
				found, err := records.Search(cmd.Context(), field, args[0])
				if err != nil {
					return sysError(fmt.Errorf("search records: %w", err))
				}
				return printRecords(cmd.OutOrStdout(), a.flags.output, found)
			})
		},
	}

	cmd.Flags().StringVar(&fieldName, "field", types.FieldEither.String(), "field to search: title, description, or either")
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, userError(fmt.Errorf("%w: %q", types.ErrInvalidID, arg))
	}
	return id, nil
}

// recordError classifies a query-layer error for a single-record command.
func recordError(op string, id int64, err error) error {
	if errors.Is(err, types.ErrNotFound) {
		return userError(fmt.Errorf("%s: record %d not found", op, id))
	}
	if errors.Is(err, types.ErrInvalidID) {
		return userError(fmt.Errorf("%s: %w", op, err))
	}
	return sysError(fmt.Errorf("%s record %d: %w", op, id, err))
}

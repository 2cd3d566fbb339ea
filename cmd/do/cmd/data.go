package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/service"
)

type namespaceFlags struct {
	profile string
	user    string
}

func (f *namespaceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.profile, "profile", "", "browser profile id")
	cmd.Flags().StringVar(&f.user, "user", "", "signed-in user id (omit for guest data)")
	_ = cmd.MarkFlagRequired("profile")
}

func (f *namespaceFlags) namespace() service.Namespace {
	return service.Namespace{ProfileID: f.profile, UserID: f.user}
}

// DataCmd exposes export, import and wipe for one profile's tracker data,
// plus direct access to the profile's stored keys.
func DataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Export, import or wipe tracker data",
	}

	cmd.AddCommand(exportCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(wipeCmd())
	cmd.AddCommand(keysCmd())
	cmd.AddCommand(clearCmd())
	return cmd
}

func exportCmd() *cobra.Command {
	var flags namespaceFlags
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			workspaces, err := e.workspaces(cmd.Context())
			if err != nil {
				return err
			}

			export, err := workspaces.Export(cmd.Context(), flags.namespace())
			if err != nil {
				return err
			}

			if output == "" {
				output = export.Filename
			}
			if output == "-" {
				_, err = cmd.OutOrStdout().Write(export.Data)
				return err
			}

			err = os.WriteFile(output, export.Data, 0o644)
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", flags.namespace(), output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default task-tracker-<date>.json)")
	return cmd
}

func importCmd() *cobra.Command {
	var flags namespaceFlags
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace tracker data with a backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			workspaces, err := e.workspaces(cmd.Context())
			if err != nil {
				return err
			}

			err = workspaces.Import(flags.namespace(), data, true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s into %s\n", file, flags.namespace())
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "backup file to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func wipeCmd() *cobra.Command {
	var flags namespaceFlags
	var yes bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete all tracker data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to wipe %s without --yes", flags.namespace())
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			workspaces, err := e.workspaces(cmd.Context())
			if err != nil {
				return err
			}

			err = workspaces.Wipe(flags.namespace(), true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wiped %s\n", flags.namespace())
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the wipe")
	return cmd
}

func keysCmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List a profile's stored keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			repo, err := e.localStorage()
			if err != nil {
				return err
			}

			items, err := repo.Items(profile)
			if err != nil {
				return fmt.Errorf("failed to list keys: %w", err)
			}
			return printItems(cmd.OutOrStdout(), items)
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "browser profile id")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

// printItems writes one line per key with its size. Values are never printed
// since one of them is the user's API key.
func printItems(w io.Writer, items []*model.StorageItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "no keys")
		return err
	}
	for _, item := range items {
		_, err := fmt.Fprintf(w, "%-40s %8d bytes  %s\n", item.Key, len(item.Value), item.UpdatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return err
		}
	}
	return nil
}

func clearCmd() *cobra.Command {
	var profile string
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored key of a profile, signing it out",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear profile %s without --yes", profile)
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			repo, err := e.localStorage()
			if err != nil {
				return err
			}

			err = repo.Clear(profile)
			if err != nil {
				return fmt.Errorf("failed to clear profile %s: %w", profile, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared profile %s\n", profile)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "browser profile id")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the clear")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

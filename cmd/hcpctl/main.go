package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hcplog/client"
	"hcplog/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "hcpctl",
		Short:         "Command-line client for the HCP interaction log",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("server", "http://localhost:8080", "base URL of the interaction log server")
	if err := v.BindPFlag("server", root.PersistentFlags().Lookup("server")); err != nil {
		panic(err)
	}
	v.SetEnvPrefix("hcpctl")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	newClient := func() *client.Client { return client.New(v.GetString("server")) }

	root.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List interactions, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				list, err := newClient().List(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, list)
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show one interaction",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				rec, err := newClient().Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(cmd, rec)
			},
		},
		&cobra.Command{
			Use:   "chat <text>",
			Short: "Log an interaction from free text",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rec, err := newClient().ChatLog(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printJSON(cmd, rec)
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete an interaction",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := newClient().Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
				return nil
			},
		},
		newLogCmd(newClient),
		newUpdateCmd(newClient),
	)
	return root
}

func newLogCmd(newClient func() *client.Client) *cobra.Command {
	var in models.InteractionInput
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log a structured interaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := newClient().LogInteraction(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}
	cmd.Flags().StringVar(&in.HCPName, "hcp-name", "", "provider name")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "visit notes")
	_ = cmd.MarkFlagRequired("hcp-name")
	return cmd
}

func newUpdateCmd(newClient func() *client.Client) *cobra.Command {
	var in models.InteractionInput
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace the provider name and notes of an interaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := newClient().Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}
	cmd.Flags().StringVar(&in.HCPName, "hcp-name", "", "provider name")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "visit notes")
	_ = cmd.MarkFlagRequired("hcp-name")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid id %q: must be an integer", s)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

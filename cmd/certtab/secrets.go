package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chtzvt/certtab/internal/secrets"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func secretsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Local secret store for sink and target credentials",
		Long: `Credentials for the s3, azureblob and http sinks and the postgres target are
read from a sealed store under secrets.dir. A key that is not stored falls back
to the ` + secrets.EnvPrefix + `<KEY> environment variable.`,
	}
	cmd.AddCommand(
		storeCmd("ls", "List stored keys", cobra.NoArgs, secretsList),
		storeCmd("set <key>", "Store the value read from stdin under key", cobra.ExactArgs(1), secretsSet),
		storeCmd("get <key>", "Print the value of key", cobra.ExactArgs(1), secretsGet),
		storeCmd("rm <key>", "Delete key", cobra.ExactArgs(1), secretsRemove),
	)
	return cmd
}

type storeFunc func(cmd *cobra.Command, store *secrets.Store, args []string) error

// storeCmd builds a subcommand that runs fn against the configured store.
func storeCmd(use, short string, args cobra.PositionalArgs, fn storeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSecrets(cfg)
			if err != nil {
				return err
			}
			return fn(cmd, store, args)
		},
	}
}

func secretsList(cmd *cobra.Command, store *secrets.Store, _ []string) error {
	keys, err := store.List(cmdContext(cmd), "")
	if err != nil {
		return err
	}
	outResult(keys, func(any) { printSecretKeys(cmd.OutOrStdout(), keys) })
	return nil
}

func secretsSet(cmd *cobra.Command, store *secrets.Store, args []string) error {
	val, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read value: %w", err)
	}
	val = []byte(strings.TrimRight(string(val), "\r\n"))
	if err := store.Set(cmdContext(cmd), args[0], val); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "stored %s (%d bytes)\n", args[0], len(val))
	return nil
}

func secretsGet(cmd *cobra.Command, store *secrets.Store, args []string) error {
	val, err := store.Get(cmdContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("%s (or $%s): %w", args[0], secrets.EnvName(args[0]), err)
	}
	_, err = cmd.OutOrStdout().Write(val)
	return err
}

func secretsRemove(cmd *cobra.Command, store *secrets.Store, args []string) error {
	if err := store.Delete(cmdContext(cmd), args[0]); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "deleted %s\n", args[0])
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printSecretKeys(w io.Writer, keys []string) {
	if len(keys) == 0 {
		fmt.Fprintln(w, "No secrets stored")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Env Override"})
	for _, key := range keys {
		table.Append([]string{key, secrets.EnvName(key)})
	}
	table.Render()
}

package main

import (
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chtzvt/certtab/internal/ctexport"
	"github.com/google/certificate-transparency-go/x509"
	"github.com/google/certificate-transparency-go/x509util"
	"github.com/spf13/cobra"
)

func lookupCmd() *cobra.Command {
	var (
		id   string
		text bool
	)
	cmd := &cobra.Command{
		Use:   "lookup <input>...",
		Short: "Print the certificate and chain of an export row",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var inputs []string
			for _, a := range args {
				found, err := ctexport.DiscoverInputs(a)
				if err != nil {
					return err
				}
				inputs = append(inputs, found...)
			}

			for _, in := range inputs {
				f, err := ctexport.Open(in, cfg.Input.Compression)
				if err != nil {
					return err
				}
				e, err := ctexport.Find(f.Reader, id)
				f.Close()
				if errors.Is(err, ctexport.ErrNotFound) {
					continue
				}
				if err != nil {
					return fmt.Errorf("%s: %w", in, err)
				}
				return printEntry(os.Stdout, e, cfg.Input.ChainDelimiter, text)
			}
			return fmt.Errorf("id %s: %w", id, ctexport.ErrNotFound)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Export row id")
	cmd.Flags().BoolVar(&text, "text", false, "Print a decoded text dump instead of PEM")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func printEntry(w io.Writer, e *ctexport.Entry, delim string, text bool) error {
	fmt.Fprintf(w, "# %s id=%s record=%d\n", e.LogURL, e.ID, e.Record)
	certs := append([]string{e.CertificateBase64}, e.Chain(delim)...)
	for i, b64 := range certs {
		der, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return fmt.Errorf("certificate %d: %w", i, err)
		}
		if !text {
			if err := pem.Encode(w, &pem.Block{Type: "CERTIFICATE", Bytes: der}); err != nil {
				return err
			}
			continue
		}
		cert, err := x509.ParseCertificate(der)
		if x509.IsFatal(err) {
			return fmt.Errorf("certificate %d: %w", i, err)
		}
		fmt.Fprintln(w, x509util.CertificateToString(cert))
	}
	return nil
}

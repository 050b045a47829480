package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/docgate/pkg/cli"
	"mercator-hq/docgate/pkg/config"
	"mercator-hq/docgate/pkg/submission"
)

var submitFlags struct {
	document      string
	signature     string
	signatureText string
	format        string
	docType       string
	endpoint      string
	dryRun        bool
	output        string
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit one signed document",
	Long: `Submit one document with its detached signature.

The document file must contain JSON. It is sent as the product_document field
of the request body together with the signature, the document format and the
document type. The submission passes the admission gate like any other, so
running several submit commands in parallel from one process is not needed;
use "docgate watch" for bulk submission.

Examples:
  # Submit with a signature file
  docgate submit --document order.json --signature order.sig

  # Signature given inline, XML format, shipping document
  docgate submit --document order.json --signature-text "$SIG" --format xml --type LP_SHIP_GOODS

  # Print the request body instead of sending it
  docgate submit --document order.json --signature order.sig --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if _, err := setupLogging(cfg); err != nil {
			return err
		}
		return runSubmit(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVarP(&submitFlags.document, "document", "d", "", "document JSON file (required)")
	submitCmd.Flags().StringVarP(&submitFlags.signature, "signature", "s", "", "detached signature file")
	submitCmd.Flags().StringVar(&submitFlags.signatureText, "signature-text", "", "detached signature given inline")
	submitCmd.Flags().StringVar(&submitFlags.format, "format", string(submission.FormatManual), "document format: manual, xml, csv")
	submitCmd.Flags().StringVar(&submitFlags.docType, "type", submission.DocumentTypeIntroduceGoods, "document type")
	submitCmd.Flags().StringVar(&submitFlags.endpoint, "endpoint", "", "override the document creation endpoint")
	submitCmd.Flags().BoolVar(&submitFlags.dryRun, "dry-run", false, "print the request body without sending it")
	submitCmd.Flags().StringVarP(&submitFlags.output, "output", "o", "text", "output format: text, json")

	_ = submitCmd.MarkFlagRequired("document")
	submitCmd.MarkFlagsMutuallyExclusive("signature", "signature-text")
}

// submitResult is the JSON output of a submission.
type submitResult struct {
	ID         string          `json:"id"`
	StatusCode int             `json:"status_code"`
	WaitMS     int64           `json:"admission_wait_ms"`
	LatencyMS  int64           `json:"latency_ms"`
	Response   json.RawMessage `json:"response,omitempty"`
	Body       string          `json:"body,omitempty"`
}

func runSubmit(ctx context.Context, cfg *config.Config, out io.Writer) error {
	format, err := cli.ParseOutputFormat(submitFlags.output)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return cli.NewConfigError("output", "csv is only supported by journal list")
	}

	req, err := buildRequest()
	if err != nil {
		return err
	}

	if submitFlags.dryRun {
		body, err := submission.EncodeEnvelope(req.Document, req.Signature, req.Format, req.Type)
		if err != nil {
			return cli.NewCommandError("submit", err)
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, body, "", "  "); err != nil {
			return cli.NewCommandError("submit", err)
		}
		pretty.WriteByte('\n')
		_, err = pretty.WriteTo(out)
		return err
	}

	if submitFlags.endpoint != "" {
		cfg.Client.Endpoint = submitFlags.endpoint
	}

	rt, err := newApp(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("submit", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rt.close(shutdownCtx)
	}()

	receipt, err := rt.client.Do(ctx, req)
	if err != nil {
		var statusErr *submission.StatusError
		if errors.As(err, &statusErr) {
			return cli.NewCommandError("submit", fmt.Errorf("rejected with status %d: %s", statusErr.StatusCode, statusErr.Body))
		}
		return cli.NewCommandError("submit", err)
	}

	if format == cli.FormatJSON {
		res := submitResult{
			ID:         receipt.ID,
			StatusCode: receipt.StatusCode,
			WaitMS:     receipt.Wait.Milliseconds(),
			LatencyMS:  receipt.Latency.Milliseconds(),
		}
		if json.Valid([]byte(receipt.Body)) {
			res.Response = json.RawMessage(receipt.Body)
		} else {
			res.Body = receipt.Body
		}
		return cli.WriteJSON(out, res)
	}

	fmt.Fprintf(out, "✓ Document submitted (status %d, wait %s, latency %s)\n",
		receipt.StatusCode,
		receipt.Wait.Round(time.Millisecond),
		receipt.Latency.Round(time.Millisecond),
	)
	if receipt.Body != "" {
		fmt.Fprintln(out, receipt.Body)
	}
	return nil
}

// buildRequest reads the document and signature named by the flags.
func buildRequest() (*submission.Request, error) {
	document, err := os.ReadFile(submitFlags.document)
	if err != nil {
		return nil, cli.NewConfigError("document", err.Error())
	}
	if !json.Valid(document) {
		return nil, cli.NewConfigError("document", fmt.Sprintf("%s does not contain valid JSON", submitFlags.document))
	}

	signature := submitFlags.signatureText
	if submitFlags.signature != "" {
		raw, err := os.ReadFile(submitFlags.signature)
		if err != nil {
			return nil, cli.NewConfigError("signature", err.Error())
		}
		signature = string(raw)
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, cli.NewConfigError("signature", "one of --signature or --signature-text is required")
	}

	docFormat, err := submission.ParseDocumentFormat(submitFlags.format)
	if err != nil {
		return nil, cli.NewConfigError("format", err.Error())
	}

	return &submission.Request{
		Document:  json.RawMessage(document),
		Signature: signature,
		Format:    docFormat,
		Type:      submitFlags.docType,
	}, nil
}

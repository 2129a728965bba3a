package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/aster/pkg/models"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	Input  string
	DryRun bool

	SourceSystem   string
	SourceRecordID string
	Kind           string
	Name           string
	Email          string
	Phone          string
	Company        string
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand() *cobra.Command {
	opts := &ResolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve raw records to canonical entities",
		Long: `Resolve one or more raw contact records to canonical entities.

A single record can be given through flags, or a batch as JSON lines through
--input (use "-" for stdin). Each line is one resolve request:

  {"source_system":"crm","source_record_id":"c-42","name":"Jane Doe","email":"jane@acme.io"}

With --dry-run nothing is written; the command reports what each record
would resolve to.

Example:
  aster resolve --source-system crm --source-record-id c-42 --email jane@acme.io
  aster resolve --input records.jsonl
  cat records.jsonl | aster resolve --input - --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Input, "input", "", "JSON-lines file of resolve requests (\"-\" for stdin)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report outcomes without writing")
	cmd.Flags().StringVar(&opts.SourceSystem, "source-system", "", "source system of a single record")
	cmd.Flags().StringVar(&opts.SourceRecordID, "source-record-id", "", "source-local id of a single record")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "entity kind (person|organization)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "raw name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "raw email")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "raw phone")
	cmd.Flags().StringVar(&opts.Company, "company", "", "raw company")

	return cmd
}

func runResolve(cmd *cobra.Command, opts *ResolveOptions) error {
	ctx := runContext(cmd.Context(), models.MergeTriggerManualCLI)

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	requests, err := collectRequests(opts)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		return fmt.Errorf("nothing to resolve: pass --input or the single-record flags")
	}

	out := cmd.OutOrStdout()
	encoder := json.NewEncoder(out)
	failed := 0

	for i := range requests {
		req := &requests[i]

		var result *models.ResolveResult
		if opts.DryRun {
			result, err = a.resolver.Preview(ctx, req)
		} else {
			result, err = a.resolver.Resolve(ctx, req)
		}
		if err != nil {
			failed++
			a.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"source_system":    req.SourceSystem,
				"source_record_id": req.SourceRecordID,
			}).Error("Failed to resolve record")
			continue
		}

		if err := encoder.Encode(result); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d records failed to resolve", failed, len(requests))
	}
	return nil
}

func collectRequests(opts *ResolveOptions) ([]models.ResolveRequest, error) {
	if opts.Input == "" {
		if opts.SourceSystem == "" && opts.SourceRecordID == "" {
			return nil, nil
		}
		return []models.ResolveRequest{{
			SourceSystem:   opts.SourceSystem,
			SourceRecordID: opts.SourceRecordID,
			Kind:           models.EntityKind(opts.Kind),
			Name:           opts.Name,
			Email:          opts.Email,
			Phone:          opts.Phone,
			Company:        opts.Company,
		}}, nil
	}

	var reader io.Reader
	if opts.Input == "-" {
		reader = os.Stdin
	} else {
		file, err := os.Open(opts.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		reader = file
	}

	var requests []models.ResolveRequest
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var req models.ResolveRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("invalid resolve request on line %d: %w", line, err)
		}
		requests = append(requests, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	return requests, nil
}

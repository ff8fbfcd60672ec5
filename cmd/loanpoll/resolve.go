package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/npratt/loanpoll/internal/refresh"
	"github.com/npratt/loanpoll/internal/source"
	"github.com/npratt/loanpoll/internal/status"
)

// resolveOutput is the --json shape of the resolve command.
type resolveOutput struct {
	status.Summary
	Refresh refreshOutput `json:"refresh"`
}

type refreshOutput struct {
	Mode             string `json:"mode"`
	IntervalSeconds  int    `json:"interval_seconds,omitempty"`
	CountdownSeconds int    `json:"countdown_seconds,omitempty"`
}

func newResolveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [file|-]",
		Short: "Resolve one status payload and print its stage",
		Long: `Resolve reads a single status payload (from a file, or stdin when the
argument is omitted or "-"), resolves it with the configured codes and prints
the stage together with the refresh directive watch would follow.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			envelope := cfg.Source.Envelope
			if cmd.Flags().Changed(FlagEnvelope) {
				envelope = a.v.GetString(FlagEnvelope)
			}

			data, err := readPayload(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			payload, err := source.Decode(data, envelope)
			if err != nil {
				return err
			}

			resolved := status.NewCodec(cfg.Codes).Resolve(payload)
			policy := refresh.Policy{FallbackCountdownSeconds: cfg.Polling.FallbackCountdownSeconds}
			directive := policy.DirectiveFor(resolved)

			a.logger.Debug("payload resolved", "stage", resolved.Stage().String(), "mode", directive.Mode.String())

			out := cmd.OutOrStdout()
			if a.v.GetBool(FlagJSON) {
				return writeResolveJSON(out, resolved, directive)
			}
			writeResolveText(out, resolved, directive)
			return nil
		},
	}

	cmd.Flags().Bool(FlagJSON, false, "Output the resolution as JSON")
	cmd.Flags().String(FlagEnvelope, "", "Top-level key wrapping the payload (overrides source.envelope)")
	bindFlags(a.v, cmd.Flags())

	return cmd
}

func readPayload(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

func writeResolveJSON(w io.Writer, r status.Resolved, d refresh.Directive) error {
	out := resolveOutput{
		Summary: status.Describe(r),
		Refresh: refreshOutput{
			Mode:             d.Mode.String(),
			IntervalSeconds:  d.IntervalSeconds,
			CountdownSeconds: d.CountdownSeconds,
		},
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal resolution: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeResolveText(w io.Writer, r status.Resolved, d refresh.Directive) {
	s := status.Describe(r)

	stage := s.Stage
	if s.Variant != "" {
		stage = fmt.Sprintf("%s (%s)", stage, s.Variant)
	}
	if s.Kind != "" {
		stage = fmt.Sprintf("%s (%s)", stage, s.Kind)
	}
	_, _ = fmt.Fprintf(w, "Stage: %s\n", stage)

	if s.EntryID != "" || s.Product != "" {
		_, _ = fmt.Fprintf(w, "Entry: %s", s.EntryID)
		if s.Product != "" {
			_, _ = fmt.Fprintf(w, " (%s)", s.Product)
		}
		_, _ = fmt.Fprintln(w)
	}
	if s.Entries > 0 {
		_, _ = fmt.Fprintf(w, "Products: %d\n", s.Entries)
	}
	if s.RetryAfterDate != "" {
		_, _ = fmt.Fprintf(w, "Retry after: %s\n", s.RetryAfterDate)
	}
	if s.Overdue {
		_, _ = fmt.Fprintln(w, "Overdue: yes")
	}
	if s.Code != nil {
		_, _ = fmt.Fprintf(w, "Code: %d\n", *s.Code)
	}
	if s.RepaymentCode != "" {
		_, _ = fmt.Fprintf(w, "Repayment code: %s\n", s.RepaymentCode)
	}

	switch d.Mode {
	case refresh.ModeFixedInterval:
		_, _ = fmt.Fprintf(w, "Refresh: every %ds\n", d.IntervalSeconds)
	case refresh.ModeCountdown:
		_, _ = fmt.Fprintf(w, "Refresh: after %ds countdown\n", d.CountdownSeconds)
	default:
		_, _ = fmt.Fprintln(w, "Refresh: manual")
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"propertylens_backend/internal/desk"
	"propertylens_backend/internal/model"
)

type session struct {
	store  *desk.Store
	client *desk.Client
	flows  *desk.Flows
	format desk.Format
}

func openSession() *session {
	store := desk.Open(desk.NewFileKV(storePath))
	client := desk.NewClient(serverURL, timeout)
	if token != "" {
		client = client.WithToken(token)
	}
	format, _ := desk.ParseFormat(outputFormat)
	flows := desk.NewFlows(store, client,
		desk.WithLanguage(language),
		desk.WithErrorHandler(func(id int64, err error) {
			printError(fmt.Sprintf("Risk assessment for %d failed: %v", id, err))
		}),
	)
	return &session{store: store, client: client, flows: flows, format: format}
}

// run wraps a relay call in a spinner.
func run(label string, fn func(ctx context.Context) error) error {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + label
	s.Start()
	err := fn(context.Background())
	s.Stop()
	return err
}

// waitFollowUps blocks until scheduled risk assessments are stored.
func (s *session) waitFollowUps() {
	sp := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = " Assessing risk..."
	sp.Start()
	s.flows.Wait()
	sp.Stop()
}

// resolveID takes the id from args, or the selected property when omitted.
func (s *session) resolveID(args []string) (int64, error) {
	if len(args) > 0 {
		return desk.ParseID(args[0])
	}
	p, ok := s.store.Selected()
	if !ok {
		return 0, errors.New("no property selected; pass an id or run `desk list`")
	}
	return p.ID, nil
}

func (s *session) showProperty(id int64) error {
	p, ok := s.store.Property(id)
	if !ok {
		return desk.ErrPropertyNotFound
	}
	var risk *model.RiskAssessment
	if r, ok := s.store.Risk(id); ok {
		risk = &r
	}
	view := struct {
		Property model.Property        `json:"property"`
		Risk     *model.RiskAssessment `json:"risk,omitempty"`
	}{p, risk}
	return desk.Render(os.Stdout, s.format, view, func(w io.Writer) {
		desk.PrintProperty(w, p, risk)
	})
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Extract a property from one or more PDF documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openSession()
			files, err := desk.ReadFiles(args)
			if err != nil {
				return err
			}
			var p model.Property
			err = run(fmt.Sprintf("Analyzing %d document(s)...", len(desk.FilterPDFs(files))), func(ctx context.Context) error {
				p, err = s.flows.Upload(ctx, files)
				return err
			})
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Added %s", p.Name))
			s.waitFollowUps()
			return s.showProperty(p.ID)
		},
	}
}

func newImportTextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-text [TEXT|-]",
		Short: "Extract a property from pasted listing text (reads stdin with -)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openSession()
			text, err := textArg(args)
			if err != nil {
				return err
			}
			var p model.Property
			err = run("Analyzing text...", func(ctx context.Context) error {
				p, err = s.flows.ImportText(ctx, text)
				return err
			})
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Added %s", p.Name))
			s.waitFollowUps()
			return s.showProperty(p.ID)
		},
	}
}

func textArg(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openSession()
			snap := s.store.Snapshot()
			return desk.Render(os.Stdout, s.format, snap.Properties, func(w io.Writer) {
				desk.PrintList(w, snap)
			})
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [ID]",
		Short: "Show a property and its risk assessment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openSession()
			id, err := s.resolveID(args)
			if err != nil {
				return err
			}
			return s.showProperty(id)
		},
	}
}

func newAssessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assess [ID]",
		Short: "Run a fresh risk assessment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openSession()
			id, err := s.resolveID(args)
			if err != nil {
				return err
			}
			var risk model.RiskAssessment
			err = run("Assessing risk...", func(ctx context.Context) error {
				risk, err = s.flows.AssessRisk(ctx, id)
				return err
			})
			if err != nil {
				return err
			}
			return desk.Render(os.Stdout, s.format, risk, func(w io.Writer) {
				desk.PrintRisk(w, risk)
			})
		},
	}
}

func newCorrectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "correct ID TEXT...",
		Short: "Correct extracted fields in plain language",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openSession()
			id, err := desk.ParseID(args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			var out desk.CorrectionOutcome
			err = run("Applying correction...", func(ctx context.Context) error {
				out, err = s.flows.Correct(ctx, id, text)
				return err
			})
			if err != nil {
				return err
			}
			if out.RiskScheduled {
				s.waitFollowUps()
			}
			return desk.Render(os.Stdout, s.format, out, func(w io.Writer) {
				desk.PrintCorrection(w, out)
			})
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	kinds := make([]string, 0, len(model.AnalysisKinds))
	for _, k := range model.AnalysisKinds {
		kinds = append(kinds, string(k))
	}
	return &cobra.Command{
		Use:       "analyze KIND [ID]",
		Short:     "Run an analysis (" + strings.Join(kinds, ", ") + ")",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openSession()
			kind, err := model.ParseAnalysisKind(args[0])
			if err != nil {
				return err
			}
			id, err := s.resolveID(args[1:])
			if err != nil {
				return err
			}
			return s.printAnswer(fmt.Sprintf("Running %s analysis...", kind), func(ctx context.Context) (string, error) {
				return s.flows.Analyze(ctx, id, kind)
			})
		},
	}
}

func newAskCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask a question about a property",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openSession()
			var idArgs []string
			if id != "" {
				idArgs = []string{id}
			}
			pid, err := s.resolveID(idArgs)
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")
			return s.printAnswer("Thinking...", func(ctx context.Context) (string, error) {
				return s.flows.Ask(ctx, pid, question)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Property id (defaults to the selected property)")
	return cmd
}

func (s *session) printAnswer(label string, fn func(ctx context.Context) (string, error)) error {
	var content string
	err := run(label, func(ctx context.Context) error {
		var err error
		content, err = fn(ctx)
		return err
	})
	if err != nil {
		return err
	}
	return desk.Render(os.Stdout, s.format, map[string]string{"content": content}, func(w io.Writer) {
		fmt.Fprintln(w, content)
	})
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a property and its risk assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openSession()
			id, err := desk.ParseID(args[0])
			if err != nil {
				return err
			}
			if err := s.store.Delete(id); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Deleted %d", id))
			return nil
		},
	}
}

func newSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select ID",
		Short: "Make a property the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openSession()
			id, err := desk.ParseID(args[0])
			if err != nil {
				return err
			}
			if err := s.store.Select(id); err != nil {
				return err
			}
			return s.showProperty(id)
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "register EMAIL PASSWORD",
		Short: "Create a relay account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openSession()
			var res desk.AuthResult
			err := run("Registering...", func(ctx context.Context) error {
				var err error
				res, err = s.client.Register(ctx, args[0], args[1], name)
				return err
			})
			if err != nil {
				return err
			}
			return printToken(s.format, res)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	return cmd
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login EMAIL PASSWORD",
		Short: "Log in and print a bearer token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openSession()
			var res desk.AuthResult
			err := run("Logging in...", func(ctx context.Context) error {
				var err error
				res, err = s.client.Login(ctx, args[0], args[1])
				return err
			})
			if err != nil {
				return err
			}
			return printToken(s.format, res)
		},
	}
}

func printToken(format desk.Format, res desk.AuthResult) error {
	return desk.Render(os.Stdout, format, res, func(w io.Writer) {
		printSuccess("Authenticated")
		fmt.Fprintf(w, "export DESK_TOKEN=%s\n", res.Token)
	})
}

func newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the logged-in account and plan limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openSession()
			if token == "" {
				return errors.New("no token; run `desk login` and set DESK_TOKEN")
			}
			var me map[string]interface{}
			err := run("Loading account...", func(ctx context.Context) error {
				var err error
				me, err = s.client.Me(ctx)
				return err
			})
			if err != nil {
				return err
			}
			// Human output falls back to yaml for the free-form account payload.
			format := s.format
			if format == desk.FormatHuman {
				format = desk.FormatYAML
			}
			return desk.Render(os.Stdout, format, me, nil)
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the relay is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openSession()
			if err := s.client.Health(context.Background()); err != nil {
				return err
			}
			printSuccess("Relay is up at " + serverURL)
			return nil
		},
	}
}

func printSuccess(msg string) {
	green := color.New(color.FgGreen)
	green.Fprintf(os.Stderr, "✓ %s\n", msg)
}

func printError(msg string) {
	red := color.New(color.FgRed)
	red.Fprintf(os.Stderr, "✗ %s\n", msg)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"GoLetterAI/app/configs"
	"GoLetterAI/app/letters"
	"GoLetterAI/app/services"
	"GoLetterAI/app/utils"
	"GoLetterAI/app/workflow"
)

const treeWidth = 80

type draftFlags struct {
	config           string
	name             string
	policy           string
	email            string
	agent            string
	letterType       string
	prompt           string
	context          string
	rounds           int
	showConversation bool
}

func parseDraftFlags(args []string) (draftFlags, error) {
	var f draftFlags
	fs := flag.NewFlagSet("draft", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", defaultConfigPath, "path to the YAML configuration")
	fs.StringVar(&f.name, "name", "", "customer name")
	fs.StringVar(&f.policy, "policy", "", "policy number")
	fs.StringVar(&f.email, "email", "", "customer email")
	fs.StringVar(&f.agent, "agent", "", "agent signing the letter")
	fs.StringVar(&f.letterType, "type", string(letters.General), "letter type")
	fs.StringVar(&f.prompt, "prompt", "", "what the letter must say")
	fs.StringVar(&f.context, "context", "", "additional context for the writer")
	fs.IntVar(&f.rounds, "rounds", 0, "maximum review rounds (0 uses the configured default)")
	fs.BoolVar(&f.showConversation, "show-conversation", false, "print the review conversation")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

func (f draftFlags) request() (letters.Request, error) {
	lt, err := letters.ParseLetterType(f.letterType)
	if err != nil {
		return letters.Request{}, letters.NewInvalidInput(err.Error())
	}
	return letters.Request{
		CustomerInfo: letters.CustomerInfo{
			Name:         f.name,
			PolicyNumber: f.policy,
			Email:        f.email,
			AgentName:    f.agent,
		},
		LetterType:          lt,
		UserPrompt:          f.prompt,
		AdditionalContext:   f.context,
		IncludeConversation: true,
		MaxRounds:           f.rounds,
	}, nil
}

// runDraft drafts one letter from the command line, without the HTTP server.
func runDraft(args []string) error {
	f, err := parseDraftFlags(args)
	if err != nil {
		return err
	}
	req, err := f.request()
	if err != nil {
		return err
	}
	if err = req.Validate(); err != nil {
		return err
	}

	cfg, err := configs.LoadConfig(f.config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	resp, err := app.service.Draft(ctx, req)
	var failure *workflow.GenerationFailure
	if errors.As(err, &failure) {
		fmt.Fprintln(os.Stderr, utils.ConversationTree("Partial conversation", failure.Conversation, treeWidth))
	}
	if err != nil {
		return err
	}
	printDraft(os.Stdout, resp, f.showConversation)
	return nil
}

func printDraft(w io.Writer, resp *services.DraftResponse, showConversation bool) {
	fmt.Fprintf(w, "📄 %s letter for %s\n\n", resp.LetterType, resp.CustomerName)
	fmt.Fprintln(w, resp.LetterContent)
	fmt.Fprintln(w)

	a := resp.ApprovalStatus
	fmt.Fprintf(w, "Writer: %s | Compliance: %s | Customer service: %s\n",
		mark(a.WriterApproved), mark(a.ComplianceApproved), mark(a.CustomerServiceApproved))
	fmt.Fprintf(w, "Status: %s after %d round(s), %s\n", resp.ComplianceStatus, resp.TotalRounds, resp.QualityAssurance)
	if resp.DocumentID != "" {
		fmt.Fprintf(w, "Saved as %s\n", resp.DocumentID)
	}
	if resp.StorageError != "" {
		fmt.Fprintf(w, "⚠️ Not saved: %s\n", resp.StorageError)
	}

	if showConversation {
		fmt.Fprintln(w)
		fmt.Fprint(w, utils.ConversationTree("Review conversation", resp.Conversation, treeWidth))
	}
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

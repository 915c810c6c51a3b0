package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eventsastudio/concierge/backend/internal/analysis/language"
	"github.com/eventsastudio/concierge/backend/internal/client"
	"github.com/eventsastudio/concierge/backend/internal/device"
	"github.com/eventsastudio/concierge/backend/internal/logging"
	"github.com/eventsastudio/concierge/backend/internal/model/chat"
	"github.com/eventsastudio/concierge/backend/internal/session"
	"github.com/eventsastudio/concierge/backend/internal/transcript"
	"github.com/eventsastudio/concierge/backend/internal/visitor"
)

type options struct {
	apiURL      string
	storagePath string
	lang        string
	timeout     time.Duration
	verbose     bool
}

// app holds what every subcommand needs once flags are parsed.
type app struct {
	logger   *zap.Logger
	storage  device.Storage
	cache    *transcript.Cache
	visitors *visitor.Provider
	opts     *options
}

// close releases the storage file. It runs after every command, including
// failed ones, and is safe to call more than once.
func (a *app) close() {
	if a.storage != nil {
		_ = a.storage.Close()
		a.storage = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// language resolves the UI language: the flag first, then the stored value.
func (a *app) language() language.Code {
	if code, ok := language.Parse(a.opts.lang); ok {
		return code
	}
	return a.cache.LoadLanguage()
}

func (a *app) openSession() (*session.Session, error) {
	return session.New(session.Config{
		VisitorID: a.visitors.GetOrCreate(),
		Language:  a.language(),
		Cache:     a.cache,
		Transport: client.NewHTTPTransport(a.opts.apiURL, a.opts.timeout),
		Logger:    a.logger,
	})
}

func newRootCmd() (*cobra.Command, *app) {
	opts := &options{}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   "chat-cli",
		Short: "Talk to the Events, A studio concierge from the terminal",
		Long: `chat-cli is a terminal client for the concierge API.

The visitor identity and transcript are kept in a local storage file, so a
conversation resumes where it stopped.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logger, err := logging.New(level, true)
			if err != nil {
				return err
			}
			a.logger = logger

			var storage device.Storage
			storage, err = device.OpenBolt(opts.storagePath)
			if err != nil {
				// Identity and transcript then last only for this run.
				logger.Warn("local storage unavailable, using in-memory storage",
					zap.String("path", opts.storagePath), zap.Error(err))
				storage = device.NewMemoryStorage()
			}
			a.storage = storage
			a.cache = transcript.NewCache(storage, logger)
			a.visitors = visitor.NewProvider(storage, logger)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api", envOrDefault("CONCIERGE_API_URL", "http://localhost:8080"), "concierge API base URL")
	root.PersistentFlags().StringVar(&opts.storagePath, "storage", device.DefaultPath(), "local storage file")
	root.PersistentFlags().StringVar(&opts.lang, "lang", "", "UI language (en, fr, ar)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "request timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newChatCmd(a),
		newSendCmd(a),
		newHistoryCmd(a),
		newClearCmd(a),
		newWhoamiCmd(a),
		newVisitorsCmd(a),
	)
	return root, a
}

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long:  "Reads one message per line. /clear starts over, /quit leaves.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			printTranscript(out, s.Open())
			return repl(cmd, s, cmd.InOrStdin(), out)
		},
	}
}

func repl(cmd *cobra.Command, s *session.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		switch line := strings.TrimSpace(scanner.Text()); line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			messages, err := s.Clear()
			if err != nil {
				return err
			}
			printTranscript(out, messages)
		default:
			reply, err := s.Send(cmd.Context(), line)
			if err != nil {
				if errors.Is(err, session.ErrClosed) {
					return nil
				}
				return err
			}
			printMessage(out, reply)
		}
	}
}

func newSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send [message]",
		Short: "Send a single message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			s.Open()
			reply, err := s.Send(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the cached transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printTranscript(cmd.OutOrStdout(), a.cache.Load(a.visitors.GetOrCreate()))
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the local transcript (the server copy is kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			messages, err := s.Clear()
			if err != nil {
				return err
			}
			printTranscript(cmd.OutOrStdout(), messages)
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the visitor identifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.visitors.GetOrCreate())
			return nil
		},
	}
}

func newVisitorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "visitors",
		Short: "List visitors with a cached transcript on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.cache.Visitors()
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d messages\n", id, len(a.cache.Load(id)))
			}
			return nil
		},
	}
}

func printTranscript(out io.Writer, messages chat.Transcript) {
	for _, m := range messages {
		printMessage(out, m)
	}
}

func printMessage(out io.Writer, m chat.Message) {
	who := "you"
	if m.Role == chat.RoleAssistant {
		who = "concierge"
	}
	fmt.Fprintf(out, "%s: %s\n", who, m.Content)
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

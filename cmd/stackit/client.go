package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/emilythestrangee/stackit/backend/internal/client"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/services"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

// openSession restores the persisted session against --api-url.
func openSession(ctx context.Context) (*client.Session, *client.Client, error) {
	tokens, err := client.OpenKeyringTokenStore()
	if err != nil {
		return nil, nil, err
	}
	api := client.New(apiURL, nil)
	session := client.NewSession(api, tokens)
	if err := session.Restore(ctx); err != nil {
		return nil, nil, err
	}
	return session, api, nil
}

// requireSession is openSession for commands that need a signed in user.
func requireSession(ctx context.Context) (*client.Session, *client.Client, error) {
	session, api, err := openSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	if session.State() != client.StateAuthenticated {
		return nil, nil, errors.New("not signed in, run `stackit login` first")
	}
	return session, api, nil
}

func readPassword(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(raw), err
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func clientCommands() []*cobra.Command {
	return []*cobra.Command{
		signupCmd(),
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		questionsCmd(),
		askCmd(),
		answerCmd(),
		voteCmd(),
		acceptCmd(),
		notificationsCmd(),
	}
}

func signupCmd() *cobra.Command {
	var creds client.Credentials
	var profile client.Profile
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, _, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			if creds.Password, err = readPassword(cmd, creds.Password); err != nil {
				return err
			}
			if err := session.SignUp(cmd.Context(), creds, profile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed up as %s\n", session.Current().Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password (prompted when empty)")
	cmd.Flags().StringVar(&profile.Username, "username", "", "public username")
	cmd.Flags().StringVar(&profile.Name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func loginCmd() *cobra.Command {
	var creds client.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, _, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			if creds.Password, err = readPassword(cmd, creds.Password); err != nil {
				return err
			}
			if err := session.SignIn(cmd.Context(), creds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", session.Current().Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, _, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			return session.SignOut(cmd.Context())
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, _, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			if session.State() != client.StateAuthenticated {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			u := session.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) <%s> role=%s\n", u.Username, u.Name, u.Email, u.Role)
			return nil
		},
	}
}

func questionsCmd() *cobra.Command {
	var (
		filter         store.QuestionFilter
		page, pageSize int
	)
	cmd := &cobra.Command{
		Use:   "questions [id]",
		Short: "List questions, or show one with its answers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, api, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				detail, err := api.GetQuestion(cmd.Context(), id)
				if err != nil {
					return err
				}
				printQuestion(cmd.OutOrStdout(), detail)
				return nil
			}

			result, err := api.ListQuestions(cmd.Context(), filter, page, pageSize)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVOTES\tANSWERS\tTITLE\tTAGS")
			for _, q := range result.Items {
				answers := fmt.Sprint(q.AnswerCount)
				if q.HasAcceptedAnswer {
					answers += "*"
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", q.ID, q.NetVotes, answers, q.Title, strings.Join(q.Tags, ","))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d questions)\n", result.Page, result.TotalPages, result.Total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter.SearchText, "search", "s", "", "search titles and bodies")
	cmd.Flags().StringSliceVarP(&filter.Tags, "tag", "t", nil, "filter by tag (repeatable)")
	cmd.Flags().BoolVar(&filter.UnansweredOnly, "unanswered", false, "only questions without answers")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "page size (server default when 0)")
	return cmd
}

func printQuestion(out io.Writer, q *services.QuestionDetail) {
	fmt.Fprintf(out, "%s\n[%s] by %s, %d votes\n\n%s\n", q.Title, strings.Join(q.Tags, ", "), q.Author.Username, q.NetVotes, q.Body)
	for _, a := range q.Answers {
		mark := ""
		if a.IsAccepted {
			mark = " (accepted)"
		}
		fmt.Fprintf(out, "\n--- %s by %s, %d votes%s\n%s\n", a.ID, a.Author.Username, a.NetVotes, mark, a.Body)
	}
}

func askCmd() *cobra.Command {
	var input services.QuestionInput
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Post a question",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, api, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}
			q, err := api.CreateQuestion(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), q.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Title, "title", "", "question title")
	cmd.Flags().StringVar(&input.Body, "body", "", "question body (HTML)")
	cmd.Flags().StringSliceVarP(&input.Tags, "tag", "t", nil, "tag (repeatable, 1 to 5)")
	return cmd
}

func answerCmd() *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:   "answer <question-id>",
		Short: "Answer a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, api, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}
			a, err := api.CreateAnswer(cmd.Context(), id, body)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "answer body (HTML)")
	return cmd
}

func voteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <question|answer> <id> <up|down>",
		Short: "Vote on a question or answer; repeating a vote retracts it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := models.TargetKind(args[0])
			direction := models.Direction(args[2])
			if !kind.Valid() {
				return fmt.Errorf("unknown target %q", args[0])
			}
			if !direction.Valid() {
				return fmt.Errorf("unknown direction %q", args[2])
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			_, api, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}
			res, err := api.Vote(cmd.Context(), kind, id, direction)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s, net votes %d\n", res.Outcome, res.NetVotes)
			return nil
		},
	}
}

func acceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <answer-id>",
		Short: "Mark an answer to your question as accepted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, api, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}
			return api.AcceptAnswer(cmd.Context(), id)
		},
	}
}

func notificationsCmd() *cobra.Command {
	var unreadOnly, readAll bool
	var page int
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show your notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, api, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if readAll {
				n, err := api.MarkAllRead(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "marked %d as read\n", n)
				return nil
			}

			result, err := api.Notifications(cmd.Context(), unreadOnly, page, 0)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, n := range result.Items {
				status := " "
				if !n.IsRead {
					status = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", status, n.CreatedAt.Format("2006-01-02 15:04"), n.Kind, n.Message)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "only unread notifications")
	cmd.Flags().BoolVar(&readAll, "read-all", false, "mark every notification as read")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

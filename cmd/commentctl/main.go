// Command commentctl drives a comment thread from the terminal through the
// same engine a UI would use.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/wb-go/wbf/retry"

	"github.com/Shahabul87/alam-lms-sub003/internal/auth"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/api"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/notify"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/session"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/thread"
	"github.com/Shahabul87/alam-lms-sub003/internal/config"
	"github.com/Shahabul87/alam-lms-sub003/internal/logger"
)

const usage = `usage: commentctl [flags] <command> [args]

commands:
  list                      print the thread
  post <text>               add a top-level comment
  reply <parent-id> <text>  reply to a comment or reply
  edit <id> <text>          change your comment
  delete <id>               delete your comment and its replies
  react <id> <type>         toggle a reaction (like love haha wow sad angry)
  token <user-id> <name>    issue a development token
`

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	postID := flag.String("post", "", "post id")
	page := flag.Int("page", 1, "page to load")
	sortBy := flag.String("sort", string(model.SortNewest), "newest, oldest or popular")
	token := flag.String("token", "", "bearer token, overrides client.token")
	all := flag.Bool("all", false, "show every reply instead of the first few")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if *token != "" {
		cfg.Client.Token = *token
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if cmd == "token" {
		if err := issueToken(cfg, args); err != nil {
			fatal(err)
		}
		return
	}

	if *postID == "" {
		fatal(errors.New("-post is required"))
	}
	sort := model.Sort(*sortBy)
	if !sort.Valid() {
		fatal(fmt.Errorf("unknown sort %q", *sortBy))
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fatal(err)
	}

	sess, err := newSession(cfg)
	if err != nil {
		fatal(err)
	}

	client := api.New(api.Options{
		BaseURL:              strings.TrimRight(cfg.Client.BaseURL, "/"),
		HTTPClient:           &http.Client{Timeout: cfg.Client.Timeout},
		Tokens:               sess,
		NestedReplyEndpoints: cfg.Client.NestedReplyEndpoints,
		Retry: retry.Strategy{
			Attempts: cfg.Client.RetryAttempts,
			Delay:    cfg.Client.RetryDelay,
			Backoff:  cfg.Client.RetryBackoff,
		},
		Logger: log,
	})

	sec := thread.New(*postID, client, sess, notify.NewLogNotifier(log), log)
	defer sec.Close()

	ctx := context.Background()
	if err := sec.FetchPage(ctx, *page, sort); err != nil {
		fatal(err)
	}
	if err := execute(ctx, sec, cmd, args); err != nil {
		fatal(err)
	}

	render(os.Stdout, sec, *all)
}

func execute(ctx context.Context, sec *thread.Section, cmd string, args []string) error {
	switch cmd {
	case "list":
		return nil
	case "post":
		if err := need(args, 1, "post <text>"); err != nil {
			return err
		}
		_, err := sec.AddTopLevelComment(ctx, strings.Join(args, " "))
		return err
	case "reply":
		if err := need(args, 2, "reply <parent-id> <text>"); err != nil {
			return err
		}
		_, err := sec.SubmitReply(ctx, args[0], strings.Join(args[1:], " "))
		return err
	case "edit":
		if err := need(args, 2, "edit <id> <text>"); err != nil {
			return err
		}
		return sec.UpdateComment(ctx, args[0], strings.Join(args[1:], " "))
	case "delete":
		if err := need(args, 1, "delete <id>"); err != nil {
			return err
		}
		return sec.DeleteComment(ctx, args[0])
	case "react":
		if err := need(args, 2, "react <id> <type>"); err != nil {
			return err
		}
		_, err := sec.React(ctx, args[0], model.ReactionType(args[1]))
		return err
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func need(args []string, n int, form string) error {
	if len(args) < n {
		return fmt.Errorf("usage: commentctl %s", form)
	}
	return nil
}

// newSession resolves the signed-in user from the configured token. The token
// is checked with the shared development secret; without a token the session
// is anonymous and only reads are possible.
func newSession(cfg config.Config) (*session.Session, error) {
	if cfg.Client.Token == "" {
		return session.NewAnonymous(), nil
	}
	u, err := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL).Parse(cfg.Client.Token)
	if err != nil {
		return nil, fmt.Errorf("client token: %w", err)
	}
	return session.NewAuthenticated(u, cfg.Client.Token), nil
}

func issueToken(cfg config.Config, args []string) error {
	if err := need(args, 2, "token <user-id> <name>"); err != nil {
		return err
	}
	tok, err := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL).Issue(model.User{
		ID:   args[0],
		Name: strings.Join(args[1:], " "),
	})
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "commentctl:", err)
	os.Exit(1)
}

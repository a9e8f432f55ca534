// Package chatcmder provides the chat command: an interactive REPL over a
// project's conversation tree.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	"github.com/papercomputeco/arbor/pkg/cliui"
	"github.com/papercomputeco/arbor/pkg/config"
	"github.com/papercomputeco/arbor/pkg/credentials"
	"github.com/papercomputeco/arbor/pkg/llm"
	"github.com/papercomputeco/arbor/pkg/llm/provider"
	"github.com/papercomputeco/arbor/pkg/logger"
	"github.com/papercomputeco/arbor/pkg/memory"
	"github.com/papercomputeco/arbor/pkg/session"
	"github.com/papercomputeco/arbor/pkg/tree"
	"github.com/papercomputeco/arbor/pkg/worker"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

const chatLongDesc string = `Start an interactive chat over a project's conversation tree.

Plain input is sent as a user turn under the active node and the reply is
attached under it. The context the model sees depends on where the active
node sits: at a root it sees every branch (hierarchical memory), anywhere
else it sees only the path from the root (isolated memory). The pinned node
is always included first.

Commands:
  /tree               Print the tree
  /checkout <id>      Move the active cursor
  /select <id>        Move the selected cursor
  /branch <id> <text> Start a new branch under <id>
  /pin <id>           Toggle the pin
  /delete <id>        Delete a node and its subtree
  /context            Show the context the next prompt would carry
  /help               Show this list
  /exit               Quit (also Ctrl+D)

Ids may be given as the prefixes printed by /tree. The tree is saved after
every change.

Examples:
  arbor chat
  arbor chat --provider anthropic --model claude-haiku-4-5
  arbor chat --provider ollama --model llama3.2 --project research`

const chatShortDesc string = "Interactive chat over the conversation tree"

const chatHelp string = `  /tree  /checkout <id>  /select <id>  /branch <id> <text>
  /pin <id>  /delete <id>  /context  /help  /exit`

var errQuit = errors.New("quit")

type chatCommander struct {
	provider    string
	model       string
	baseURL     string
	temperature float64
	maxTokens   uint
	tokenBudget uint

	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	markdown bool

	ws     *workspace.Workspace
	logger *slog.Logger
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			if f, ok := cmder.out.(*os.File); ok {
				cmder.markdown = logger.IsTerminal(f)
			}
			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &cmder.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &cmder.baseURL)
	config.AddFloatFlag(cmd, config.Flags, config.FlagTemperature, &cmder.temperature)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxTokens, &cmder.maxTokens)
	config.AddUintFlag(cmd, config.Flags, config.FlagTokenBudget, &cmder.tokenBudget)
	workspace.AddStorageFlags(cmd)

	return cmd
}

func (c *chatCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	flags := workspace.FlagsFrom(cmd)
	c.logger = logger.NewCLI(flags.Debug)

	keys := append([]string{
		config.FlagProvider,
		config.FlagModel,
		config.FlagBaseURL,
		config.FlagTemperature,
		config.FlagMaxTokens,
		config.FlagTokenBudget,
	}, workspace.StorageFlagKeys...)

	cfg, cfger, err := workspace.LoadConfig(cmd, flags, keys...)
	if err != nil {
		return err
	}

	credMgr, err := credentials.NewManager(flags.ConfigDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	caller, err := provider.NewCaller(ctx, provider.Config{
		Provider:        cfg.Provider.Name,
		Model:           cfg.Provider.Model,
		BaseURL:         cfg.Provider.BaseURL,
		CredMgr:         credMgr,
		DisableFallback: cfg.Provider.DisableFallback,
		Logger:          c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}

	timeout, err := cfg.ProviderTimeout()
	if err != nil {
		return err
	}

	pool, err := worker.NewPool(&worker.Config{
		Call:    caller.Call,
		Timeout: timeout,
		Logger:  c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Close()

	c.ws, err = workspace.Open(ctx, workspace.Options{
		Flags:      flags,
		Config:     cfg,
		Configer:   cfger,
		Dispatcher: pool,
		LLM: llm.Options{
			Model:       caller.Model,
			Temperature: llm.Temperature(cfg.Provider.Temperature),
			MaxTokens:   int(cfg.Provider.MaxTokens), //nolint:gosec // max tokens is small
		},
		Logger: c.logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.ws.Close() }()

	c.printHeader(caller)
	return c.loop(ctx)
}

func (c *chatCommander) printHeader(caller *provider.Caller) {
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Project:"), cliui.NameStyle.Render(c.ws.Project))
	fmt.Fprintf(c.out, "  %s %s %s\n",
		cliui.KeyStyle.Render("Model:"),
		cliui.NameStyle.Render(caller.Model),
		cliui.DimStyle.Render("("+caller.Provider+")"),
	)

	if active := c.ws.Session.ActiveID(); active != "" {
		n, err := c.ws.Session.Node(active)
		if err == nil {
			fmt.Fprintf(c.out, "  %s Resuming at %s %s\n",
				cliui.SuccessMark,
				cliui.IDStyle.Render(cliui.ShortID(active)),
				cliui.DimStyle.Render(fmt.Sprintf("(%d nodes, %s memory)", c.ws.Session.Len(), memory.Classify(n))),
			)
		}
	} else {
		fmt.Fprintf(c.out, "  %s New conversation\n", cliui.DimStyle.Render("●"))
	}

	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("Type a message and press Enter. /help for commands, /exit or Ctrl+D to quit."))
}

func (c *chatCommander) loop(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		var err error
		if strings.HasPrefix(input, "/") {
			err = c.command(ctx, input)
		} else {
			err = c.send(ctx, func() (*session.Pending, error) {
				return c.ws.Session.Send(input)
			})
		}

		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			fmt.Fprintf(c.errOut, "  %s %v\n\n", cliui.FailMark, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// send commits a user turn, waits for the reply and saves the tree.
func (c *chatCommander) send(ctx context.Context, start func() (*session.Pending, error)) error {
	pending, err := start()
	if err != nil {
		return err
	}

	// The user turn is committed even if the reply never arrives.
	saveErr := c.ws.Save(ctx)

	var reply *tree.Node
	waitErr := cliui.Step(c.errOut, "Thinking", func() error {
		var err error
		reply, err = pending.Wait(ctx)
		return err
	})
	if waitErr != nil {
		return errors.Join(saveErr, fmt.Errorf("no reply: %w", waitErr))
	}

	c.printReply(reply)
	return errors.Join(saveErr, c.ws.Save(ctx))
}

func (c *chatCommander) printReply(reply *tree.Node) {
	content := reply.Content
	if c.markdown {
		if rendered, err := cliui.RenderMarkdown(content); err == nil {
			content = rendered
		}
	}

	fmt.Fprintf(c.out, "%s%s %s\n%s\n\n",
		assistantPrompt,
		cliui.IDStyle.Render(cliui.ShortID(reply.ID)),
		cliui.DimStyle.Render(reply.Metadata.ModelUsed),
		strings.TrimRight(content, "\n"),
	)
}

// command runs a slash command.
func (c *chatCommander) command(ctx context.Context, input string) error {
	name, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "/exit", "/quit":
		return errQuit

	case "/help":
		fmt.Fprintf(c.out, "%s\n\n", cliui.DimStyle.Render(chatHelp))
		return nil

	case "/tree":
		fmt.Fprintln(c.out)
		c.ws.RenderTree(c.out)
		fmt.Fprintln(c.out)
		return nil

	case "/context":
		view, err := c.ws.Inspect("", "")
		if err != nil {
			return err
		}
		cliui.RenderContext(c.out, view)
		return nil

	case "/checkout":
		return c.mutate(ctx, rest, func(id string) (string, error) {
			return "Checked out", c.ws.Session.SetActive(id)
		})

	case "/select":
		return c.mutate(ctx, rest, func(id string) (string, error) {
			return "Selected", c.ws.Session.SetSelected(id)
		})

	case "/pin":
		return c.mutate(ctx, rest, func(id string) (string, error) {
			pinned, err := c.ws.Session.TogglePin(id)
			if pinned {
				return "Pinned", err
			}
			return "Unpinned", err
		})

	case "/delete":
		return c.mutate(ctx, rest, func(id string) (string, error) {
			removed, err := c.ws.Session.DeleteNode(id)
			return fmt.Sprintf("Deleted %d nodes at", len(removed)), err
		})

	case "/branch":
		ref, text, _ := strings.Cut(rest, " ")
		text = strings.TrimSpace(text)
		if ref == "" || text == "" {
			return errors.New("usage: /branch <id> <text>")
		}
		id, err := c.ws.Resolve(ref)
		if err != nil {
			return err
		}
		return c.send(ctx, func() (*session.Pending, error) {
			return c.ws.Session.Branch(id, text)
		})

	default:
		return fmt.Errorf("unknown command %s (try /help)", name)
	}
}

// mutate resolves ref, applies fn, reports the result and saves.
func (c *chatCommander) mutate(ctx context.Context, ref string, fn func(id string) (string, error)) error {
	id, err := c.ws.Resolve(ref)
	if err != nil {
		return err
	}

	verb, err := fn(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s %s %s\n\n",
		cliui.SuccessMark,
		verb,
		cliui.IDStyle.Render(cliui.ShortID(id)),
	)
	return c.ws.Save(ctx)
}

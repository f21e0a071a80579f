// Package handlers implements the interactive command shell: it parses one
// input line, calls the matching service operation and renders the outcome.
package handlers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"parcel-tracker/internal/apperrors"
	"parcel-tracker/internal/auth"
	"parcel-tracker/internal/models"
	"parcel-tracker/internal/service"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	errNotLoggedIn     = apperrors.New(apperrors.CodeInvalidCapability, "not logged in")
	errAlreadyLoggedIn = errors.New("already logged in, logout first")
)

// command is one shell verb. maxArgs < 0 means the trailing arguments are
// joined into the last one.
type command struct {
	usage   string
	minArgs int
	maxArgs int
	run     func(h *Handlers, ctx context.Context, args []string) error
}

// Handlers holds the shell state of one user at a terminal.
type Handlers struct {
	service *service.Service
	out     io.Writer
	printer *message.Printer
	fold    cases.Caser

	// Prompt is written before every line read by Run.
	Prompt string

	capability *auth.Capability
}

// NewHandlers creates a shell writing to out.
func NewHandlers(svc *service.Service, out io.Writer) *Handlers {
	return &Handlers{
		service: svc,
		out:     out,
		printer: message.NewPrinter(language.English),
		fold:    cases.Fold(),
	}
}

// LoggedInAs returns the username of the held capability, if any.
func (h *Handlers) LoggedInAs() (string, bool) {
	if h.capability == nil {
		return "", false
	}
	return h.capability.Username, true
}

// Run reads commands from in until exit or end of input.
func (h *Handlers) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if h.Prompt != "" {
			fmt.Fprint(h.out, h.Prompt)
		}
		if !scanner.Scan() {
			break
		}
		if h.Dispatch(ctx, scanner.Text()) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Dispatch runs one input line and reports whether the shell should stop.
// A failed command is rendered and never stops the shell.
func (h *Handlers) Dispatch(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	name := h.fold.String(fields[0])
	if name == "exit" || name == "quit" {
		return true
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(h.out, "error: unknown command %q, type help for a list\n", fields[0])
		return false
	}

	args := fields[1:]
	if len(args) < cmd.minArgs || (cmd.maxArgs >= 0 && len(args) > cmd.maxArgs) {
		fmt.Fprintf(h.out, "usage: %s\n", cmd.usage)
		return false
	}
	if cmd.maxArgs < 0 && len(args) > cmd.minArgs {
		// free-text tail, single spaced
		tail := strings.Join(args[cmd.minArgs-1:], " ")
		args = append(args[:cmd.minArgs-1], tail)
	}

	if err := cmd.run(h, ctx, args); err != nil {
		h.renderError(err)
	}
	return false
}

func (h *Handlers) renderError(err error) {
	if apperrors.CodeOf(err) == apperrors.CodeStorage {
		log.Printf("command failed: %v", err)
	}
	fmt.Fprintf(h.out, "error: %s\n", err)
}

func (h *Handlers) current() (auth.Capability, error) {
	if h.capability == nil {
		return auth.Capability{}, errNotLoggedIn
	}
	return *h.capability, nil
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"register":       {"register <username> <password>", 2, 2, (*Handlers).register},
		"login":          {"login <username> <password>", 2, 2, (*Handlers).login},
		"logout":         {"logout", 0, 0, (*Handlers).logout},
		"changepassword": {"changepassword <new password>", 1, 1, (*Handlers).changePassword},
		"info":           {"info", 0, 0, (*Handlers).info},
		"addbalance":     {"addbalance <amount>", 1, 1, (*Handlers).addBalance},
		"transfer":       {"transfer <amount> <username>", 2, 2, (*Handlers).transfer},
		"queryallitem":   {"queryallitem", 0, 0, (*Handlers).queryAllItems},
		"query":          {"query <id> <sendY> <sendM> <sendD> <recvY> <recvM> <recvD> <src> <dst>", 9, 9, (*Handlers).query},
		"querysrc":       {"querysrc <id> <sendY> <sendM> <sendD> <recvY> <recvM> <recvD> <dst>", 8, 8, (*Handlers).querySent},
		"querydst":       {"querydst <id> <sendY> <sendM> <sendD> <recvY> <recvM> <recvD> <src>", 8, 8, (*Handlers).queryReceived},
		"send":           {"send <year> <month> <day> <dst> <description...>", 5, -1, (*Handlers).send},
		"receive":        {"receive <id>", 1, 1, (*Handlers).receive},
		"today":          {"today", 0, 0, (*Handlers).today},
		"advance":        {"advance <days>", 1, 1, (*Handlers).advance},
		"whoami":         {"whoami", 0, 0, (*Handlers).whoami},
		"attach":         {"attach <capability json>", 1, -1, (*Handlers).attach},
		"find":           {"find <filter json>", 1, -1, (*Handlers).find},
		"help":           {"help", 0, 0, (*Handlers).help},
	}
}

func (h *Handlers) register(ctx context.Context, args []string) error {
	if h.capability != nil {
		return errAlreadyLoggedIn
	}
	if err := h.service.Register(ctx, args[0], args[1], models.RoleCustomer); err != nil {
		return err
	}
	fmt.Fprintf(h.out, "registered %s\n", args[0])
	return nil
}

func (h *Handlers) login(ctx context.Context, args []string) error {
	if h.capability != nil {
		return errAlreadyLoggedIn
	}
	c, err := h.service.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	h.capability = &c
	fmt.Fprintf(h.out, "logged in as %s\n", c.Username)
	return nil
}

// whoami prints the held capability in its wire form, so another terminal can
// attach to the same session.
func (h *Handlers) whoami(_ context.Context, _ []string) error {
	c, err := h.current()
	if err != nil {
		return err
	}
	session, err := h.service.Session(c)
	if err != nil {
		return err
	}
	encoded, err := c.Encode()
	if err != nil {
		return err
	}
	fmt.Fprintf(h.out, "capability: %s\n", encoded)
	fmt.Fprintf(h.out, "session: %s opened %s\n", session.ID, session.OpenedAt.Format(time.RFC3339))
	return nil
}

// attach adopts a capability printed by whoami.
func (h *Handlers) attach(_ context.Context, args []string) error {
	if h.capability != nil {
		return errAlreadyLoggedIn
	}
	c, err := auth.DecodeCapability([]byte(args[0]))
	if err != nil {
		return err
	}
	if _, err := h.service.Session(c); err != nil {
		return err
	}
	h.capability = &c
	fmt.Fprintf(h.out, "attached as %s\n", c.Username)
	return nil
}

func (h *Handlers) logout(_ context.Context, _ []string) error {
	c, err := h.current()
	if err != nil {
		return err
	}
	// The capability is useless after a failed logout too.
	h.capability = nil
	if err := h.service.Logout(c); err != nil {
		return err
	}
	fmt.Fprintln(h.out, "logged out")
	return nil
}

func (h *Handlers) changePassword(ctx context.Context, args []string) error {
	c, err := h.current()
	if err != nil {
		return err
	}
	if err := h.service.ChangePassword(ctx, c, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(h.out, "password changed")
	return nil
}

func (h *Handlers) info(ctx context.Context, _ []string) error {
	c, err := h.current()
	if err != nil {
		return err
	}
	info, err := h.service.GetInfo(ctx, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(h.out, "username: %s\n", info.Username)
	fmt.Fprintf(h.out, "type: %s\n", info.Role)
	h.printer.Fprintf(h.out, "balance: %d\n", info.Balance)
	return nil
}

func (h *Handlers) addBalance(ctx context.Context, args []string) error {
	c, err := h.current()
	if err != nil {
		return err
	}
	delta, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	if err := h.service.AddBalance(ctx, c, delta); err != nil {
		return err
	}
	return h.showBalance(ctx, c)
}

func (h *Handlers) transfer(ctx context.Context, args []string) error {
	c, err := h.current()
	if err != nil {
		return err
	}
	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	if err := h.service.Transfer(ctx, c, amount, args[1]); err != nil {
		return err
	}
	return h.showBalance(ctx, c)
}

func (h *Handlers) showBalance(ctx context.Context, c auth.Capability) error {
	info, err := h.service.GetInfo(ctx, c)
	if err != nil {
		return err
	}
	h.printer.Fprintf(h.out, "balance: %d\n", info.Balance)
	return nil
}

func (h *Handlers) today(_ context.Context, _ []string) error {
	fmt.Fprintf(h.out, "today is %s\n", h.service.Today())
	return nil
}

func (h *Handlers) advance(ctx context.Context, args []string) error {
	c, err := h.current()
	if err != nil {
		return err
	}
	days, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("days must be an integer, got %q", args[0])
	}
	today, err := h.service.AdvanceDays(ctx, c, days)
	if err != nil {
		return err
	}
	fmt.Fprintf(h.out, "today is %s\n", today)
	return nil
}

func (h *Handlers) help(_ context.Context, _ []string) error {
	usages := make([]string, 0, len(commands)+1)
	for _, cmd := range commands {
		usages = append(usages, cmd.usage)
	}
	usages = append(usages, "exit")
	sort.Strings(usages)
	for _, u := range usages {
		fmt.Fprintf(h.out, "  %s\n", u)
	}
	return nil
}

func parseAmount(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount must be an integer, got %q", s)
	}
	return v, nil
}

package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/RubachokBoss/grading-assistant/internal/models"
	"github.com/RubachokBoss/grading-assistant/internal/service"
	"github.com/RubachokBoss/grading-assistant/internal/service/report"
	"github.com/rs/zerolog"
)

// Prefix is accepted, but not required, in front of a command name.
const Prefix = "!"

type Request struct {
	Text       string
	Permission Permission
}

type Dispatcher interface {
	// Dispatch runs one command and returns the reply split into messages no
	// longer than the configured size. Failures of the command itself are
	// turned into a short reply. The only returned error is
	// ErrPermissionDenied, which callers answer with silence.
	Dispatch(ctx context.Context, req Request) ([]string, error)
	Names() []string
}

type Options struct {
	Organization   string
	DefaultGraders int
	MaxGraders     int
	MaxMessageSize int
}

type handlerFunc func(ctx context.Context, args []string) (string, error)

type command struct {
	name          string
	minPermission Permission
	visibleInHelp bool
	help          string
	run           handlerFunc
}

type dispatcher struct {
	mu        sync.Mutex
	commands  []command
	byName    map[string]command
	grading   service.GradingService
	deadlines service.DeadlineService
	opts      Options
	logger    zerolog.Logger
}

func NewDispatcher(
	grading service.GradingService,
	deadlines service.DeadlineService,
	opts Options,
	logger zerolog.Logger,
) Dispatcher {
	if opts.DefaultGraders < 1 {
		opts.DefaultGraders = 4
	}
	if opts.MaxGraders < opts.DefaultGraders {
		opts.MaxGraders = max(opts.DefaultGraders, service.DefaultMaxGraders)
	}

	d := &dispatcher{
		grading:   grading,
		deadlines: deadlines,
		opts:      opts,
		logger:    logger,
	}

	d.commands = []command{
		{name: "help", minPermission: Everyone, visibleInHelp: true, help: "Print this message", run: d.help},
		{name: "commands", minPermission: Admin, run: d.listCommands},
		{name: "roll", minPermission: Member, help: "Roll grading for an assignment. Args: <assignment> [graders]", run: d.roll},
		{name: "undo", minPermission: Member, help: "Remove a rolled grading list. Args: [assignment]", run: d.undo},
		{name: "undo_all", minPermission: Member, help: "Remove all rolled grading lists", run: d.undoAll},
		{name: "rolled", minPermission: Member, help: "List rolled assignments", run: d.rolled},
		{name: "next_deadline", minPermission: Everyone, visibleInHelp: true, help: "Get the next assignment, deadline and remaining time", run: d.nextDeadline},
		{name: "tas", minPermission: Everyone, visibleInHelp: true, help: "List TAs in the course", run: d.tas},
	}

	d.byName = make(map[string]command, len(d.commands))
	for _, c := range d.commands {
		d.byName[c.name] = c
	}

	return d
}

func (d *dispatcher) Names() []string {
	names := make([]string, len(d.commands))
	for i, c := range d.commands {
		names[i] = c.name
	}
	return names
}

func (d *dispatcher) Dispatch(ctx context.Context, req Request) ([]string, error) {
	fields := strings.Fields(req.Text)
	if len(fields) == 0 {
		return nil, nil
	}
	name := strings.ToLower(strings.TrimPrefix(fields[0], Prefix))
	args := fields[1:]

	cmd, ok := d.byName[name]
	if !ok {
		d.logger.Debug().Err(models.ErrUnknownCommand).Str("command", name).Msg("Command ignored")
		return d.chunk(fmt.Sprintf("Unknown command %s, try %s\n", report.ToInlineCode(name), report.ToInlineCode("help"))), nil
	}

	if req.Permission < cmd.minPermission {
		d.logger.Debug().
			Str("command", name).
			Stringer("permission", req.Permission).
			Msg("Command ignored, insufficient permission")
		return nil, fmt.Errorf("%w: %s requires %s", models.ErrPermissionDenied, name, cmd.minPermission)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	reply, err := cmd.run(ctx, args)
	if err != nil {
		d.logger.Error().Err(err).Str("command", name).Strs("args", args).Msg("Command failed")
		reply = d.errorReply(err)
	} else {
		d.logger.Info().Str("command", name).Strs("args", args).Msg("Command handled")
	}

	return d.chunk(reply), nil
}

func (d *dispatcher) chunk(reply string) []string {
	return report.ChunkAll(reply, d.opts.MaxMessageSize)
}

func (d *dispatcher) errorReply(err error) string {
	switch {
	case errors.Is(err, models.ErrAssignmentRequired):
		return "Please specify an assignment\n"
	case errors.Is(err, models.ErrInvalidGraderCount):
		return fmt.Sprintf("Grader count must be a whole number from 1 to %d\n", d.opts.MaxGraders)
	case errors.Is(err, models.ErrSourceUnavailable):
		return "GitHub is unavailable right now, try again later\n"
	case errors.Is(err, models.ErrLedgerIO):
		return "Could not update the grading ledger, nothing was changed\n"
	default:
		return "Something went wrong\n"
	}
}

func (d *dispatcher) help(ctx context.Context, _ []string) (string, error) {
	var lines strings.Builder
	for _, c := range d.commands {
		if c.visibleInHelp {
			fmt.Fprintf(&lines, "%s: %s\n", c.name, c.help)
		}
	}

	welcome := fmt.Sprintf("Welcome to %s's course assistant. Here's available commands:\n", d.opts.Organization)
	return welcome + report.ToCodeBlock(lines.String(), ""), nil
}

func (d *dispatcher) listCommands(ctx context.Context, _ []string) (string, error) {
	return "Commands:\n" + report.ToCodeBlock(strings.Join(d.Names(), "\n"), ""), nil
}

func (d *dispatcher) roll(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", models.ErrAssignmentRequired
	}

	// An unparsable count is passed on as 0: a stored list is still returned,
	// a fresh roll is rejected by the service.
	graders := d.opts.DefaultGraders
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			d.logger.Debug().Str("graders", args[1]).Msg("Grader count is not a number")
			n = 0
		}
		graders = n
	}

	result, err := d.grading.RollAssignment(ctx, args[0], graders)
	if err != nil {
		return "", err
	}
	return report.RenderRoll(result), nil
}

func (d *dispatcher) undo(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return report.RenderRolled(d.grading.ListRolled(ctx)), nil
	}

	if err := d.grading.UndoOne(ctx, args[0]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Removed grading list for %s\n", report.ToInlineCode(args[0])), nil
}

func (d *dispatcher) undoAll(ctx context.Context, _ []string) (string, error) {
	if err := d.grading.UndoAll(ctx); err != nil {
		return "", err
	}
	return "Removed all grading lists\n", nil
}

func (d *dispatcher) rolled(ctx context.Context, _ []string) (string, error) {
	return report.RenderRolled(d.grading.ListRolled(ctx)), nil
}

func (d *dispatcher) nextDeadline(ctx context.Context, _ []string) (string, error) {
	upcoming, err := d.deadlines.Next(ctx)
	if err != nil {
		return "", err
	}
	return report.RenderNextDeadline(upcoming), nil
}

func (d *dispatcher) tas(ctx context.Context, _ []string) (string, error) {
	graders, err := d.grading.ListGraders(ctx)
	if err != nil {
		return "", err
	}
	return report.RenderGraders(graders), nil
}

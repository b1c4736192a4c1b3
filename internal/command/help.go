package command

import (
	"context"
	"fmt"
	"strings"
)

// HelpCommand renders the command table from the registry.
type HelpCommand struct {
	registry *Registry
}

// NewHelp creates the /help handler.
func NewHelp(registry *Registry) *HelpCommand {
	return &HelpCommand{registry: registry}
}

func (c *HelpCommand) Name() string { return "help" }

func (c *HelpCommand) Help() string { return "Show the available commands" }

func (c *HelpCommand) Execute(ctx context.Context, req Request) (Outcome, error) {
	var b strings.Builder
	b.WriteString("# Available commands\n\n")
	for _, h := range c.registry.List() {
		fmt.Fprintf(&b, "- **/%s** - %s\n", h.Name(), h.Help())
	}
	b.WriteString("- **/clear** - Clear the screen\n")
	b.WriteString("- **/exit** - Leave the assistant\n")
	b.WriteString("\nAnything that does not start with / is sent to the assistant as a question.\n")
	b.WriteString("Press Enter on an empty line to cancel a pending prompt.\n")
	return Outcome{Success: true, Payload: map[string]any{"response": b.String()}}, nil
}

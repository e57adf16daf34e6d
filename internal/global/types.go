package global

// Node of the CLI command tree, rendered by the help menu
type CommandSet struct {
	CommandName     string
	UsageOption     string                 // Trailing usage text, like "[options]"
	Description     string                 // Shown in the parent's subcommand list
	FullDescription string                 // Shown on the command's own help page
	EnvOverrides    []string               // Environment variables read by the command
	ChildCommands   map[string]*CommandSet // nil for leaf commands
}

type CtxKey string

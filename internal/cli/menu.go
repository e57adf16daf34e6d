package cli

import (
	"flag"
	"fmt"
	"os"
	"segtransport/internal/global"
	"sort"
	"strings"
	"text/tabwriter"
)

const (
	RootCLICommand  string = "root"
	helpMenuTrailer string = `
Send SIGHUP to a running daemon to reload its configuration file.
`
	menuIndent string = "  "
)

// Full standardized help menu (wraps option printer as well)
func PrintHelpMenu(fs *flag.FlagSet, command string, rootCmd *global.CommandSet) {
	curCmdSet, parents := findCommand(rootCmd, command)
	if curCmdSet == nil {
		fmt.Printf("Unknown command: %s\n", command)
		return
	}

	// Usage line omits the root node name
	usageParts := []string{os.Args[0]}
	for _, parent := range parents[min(1, len(parents)):] {
		usageParts = append(usageParts, parent.CommandName)
	}
	if curCmdSet != rootCmd {
		usageParts = append(usageParts, curCmdSet.CommandName)
	}
	switch len(curCmdSet.ChildCommands) {
	case 0:
	case 1:
		for name := range curCmdSet.ChildCommands {
			usageParts = append(usageParts, name)
		}
	default:
		usageParts = append(usageParts, "[subcommand]")
	}
	if curCmdSet.UsageOption != "" {
		usageParts = append(usageParts, curCmdSet.UsageOption)
	}
	fmt.Printf("Usage: %s\n\n", strings.Join(usageParts, " "))

	if curCmdSet == rootCmd {
		fmt.Printf("%s\n%s\n\n", curCmdSet.Description, curCmdSet.FullDescription)
	} else if curCmdSet.FullDescription != "" {
		fmt.Printf("%sDescription:\n%s%s%s\n\n", menuIndent, menuIndent, menuIndent, curCmdSet.FullDescription)
	}

	if len(curCmdSet.ChildCommands) > 0 {
		fmt.Printf("%sSubcommands:\n", menuIndent)
		out := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, name := range sortedKeys(curCmdSet.ChildCommands) {
			fmt.Fprintf(out, "%s%s%s\t- %s\n", menuIndent, menuIndent, name, curCmdSet.ChildCommands[name].Description)
		}
		out.Flush()
		fmt.Println()
	}

	printFlagOptions(fs)

	if len(curCmdSet.EnvOverrides) > 0 {
		fmt.Printf("\n%sEnvironment (overrides config file, also read from --env-file):\n", menuIndent)
		for _, name := range curCmdSet.EnvOverrides {
			fmt.Printf("%s%s%s\n", menuIndent, menuIndent, name)
		}
	}

	if curCmdSet == rootCmd {
		fmt.Print(helpMenuTrailer)
	}
}

// Locates command by name (one or two levels deep) with its ancestors
func findCommand(rootCmd *global.CommandSet, command string) (found *global.CommandSet, parents []*global.CommandSet) {
	if command == "" || command == RootCLICommand {
		found = rootCmd
		return
	}
	if cmd, ok := rootCmd.ChildCommands[command]; ok {
		found = cmd
		parents = []*global.CommandSet{rootCmd}
		return
	}
	for _, name := range sortedKeys(rootCmd.ChildCommands) {
		topCmd := rootCmd.ChildCommands[name]
		if sub, ok := topCmd.ChildCommands[command]; ok {
			found = sub
			parents = []*global.CommandSet{rootCmd, topCmd}
			return
		}
	}
	return
}

func sortedKeys(commands map[string]*global.CommandSet) (names []string) {
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// Short and long flags sharing usage text are printed on one line
// like "  -c, --config  Path to the configuration file"
func printFlagOptions(fs *flag.FlagSet) {
	type option struct {
		short      []string
		long       []string
		usage      string
		defaultVal string
	}

	byUsage := make(map[string]*option)
	var order []*option
	fs.VisitAll(func(arg *flag.Flag) {
		opt, seen := byUsage[arg.Usage]
		if !seen {
			opt = &option{usage: arg.Usage, defaultVal: arg.DefValue}
			byUsage[arg.Usage] = opt
			order = append(order, opt)
		}
		if len(arg.Name) == 1 {
			opt.short = append(opt.short, "-"+arg.Name)
		} else {
			opt.long = append(opt.long, "--"+arg.Name)
		}
	})

	sortName := func(opt *option) string {
		return strings.ToLower(strings.TrimLeft(strings.Join(append(opt.short, opt.long...), ""), "-"))
	}
	sort.Slice(order, func(i, j int) bool {
		return sortName(order[i]) < sortName(order[j])
	})

	fmt.Printf("%sOptions:\n", menuIndent)
	out := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, opt := range order {
		// Long-only flags line up under the long names of paired flags
		shortCol := strings.Join(opt.short, ", ")
		if shortCol != "" && len(opt.long) > 0 {
			shortCol += ","
		}

		desc := opt.usage
		if opt.defaultVal != "" && opt.defaultVal != "false" && opt.defaultVal != "0" {
			desc += fmt.Sprintf(" [default: %s]", opt.defaultVal)
		}
		fmt.Fprintf(out, "%s%s\t%s\t%s\n", menuIndent, shortCol, strings.Join(opt.long, ", "), desc)
	}
	out.Flush()
}

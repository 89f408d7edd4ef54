// Package bot routes chat lines to dice bot commands and tracks chat rooms.
package bot

// Categories for organizing commands in help output.
const (
	CategoryDice   = "dice"
	CategoryChat   = "chat"
	CategorySystem = "system"
)

// Handler identifiers mapping commands to Bot methods.
const (
	HandlerRoll  = "roll"
	HandlerSet   = "set"
	HandlerBot   = "bot"
	HandlerLuck  = "luck"
	HandlerMacro = "macro"
	HandlerJoin  = "join"
	HandlerNick  = "nick"
	HandlerWho   = "who"
	HandlerHelp  = "help"
	HandlerQuit  = "quit"
)

// Command defines a chat command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument shape.
	Usage string
	// Help is the short help text.
	Help string
	// Category groups the command in help output.
	Category string
	// Handler selects the Bot method that runs the command.
	Handler string
}

// BuiltinCommands returns every command the bot understands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "roll", Aliases: []string{"r"}, Usage: "[N#][h|s][b|p[N]]<expr> [reason]", Help: "Roll a dice expression", Category: CategoryDice, Handler: HandlerRoll},
		{Name: "set", Usage: "[surface]", Help: "Set or clear this chat's default dice surface", Category: CategoryDice, Handler: HandlerSet},
		{Name: "jrrp", Aliases: []string{"luck"}, Help: "Show your lucky number of the day", Category: CategoryDice, Handler: HandlerLuck},
		{Name: "macro", Aliases: []string{"m"}, Usage: "<name> [args...]", Help: "Run a roll macro", Category: CategoryDice, Handler: HandlerMacro},
		{Name: "join", Usage: "<chat>", Help: "Move to another chat", Category: CategoryChat, Handler: HandlerJoin},
		{Name: "nick", Usage: "<name>", Help: "Change your name", Category: CategoryChat, Handler: HandlerNick},
		{Name: "who", Help: "List people in this chat", Category: CategoryChat, Handler: HandlerWho},
		{Name: "bot", Usage: "[on|off]", Help: "Switch the dice bot on or off for this chat", Category: CategorySystem, Handler: HandlerBot},
		{Name: "help", Aliases: []string{"?"}, Help: "List commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit"}, Help: "Disconnect", Category: CategorySystem, Handler: HandlerQuit},
	}
}

package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler describes one handler registration. When MatchFunc is
// set it takes precedence over Pattern and MatchType.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
	MatchFunc   tgbot.MatchFunc
}

// RegisterAllCommands returns every handler of the bot keyed by a unique
// name. Commands and their reply-keyboard buttons share one action.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	private := []tgbot.Middleware{PrivateChatOnly(deps)}
	handlers := make(map[string]RegisteredHandler)

	actions := []struct {
		command string
		button  string
		run     action
	}{
		{"start", deps.Config.Buttons.Launch, deps.Session.Register},
		{"change_time", deps.Config.Buttons.ChangeTime, deps.Session.ChangeTime},
		{"stop", deps.Config.Buttons.Stop, deps.Session.Stop},
		{"skip", deps.Config.Buttons.Skip, deps.Session.SkipToday},
		{"help", "", deps.Session.Help},
	}

	for _, a := range actions {
		handler := NewActionHandler(deps, a.command, a.run)
		handlers["/"+a.command] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     a.command,
			Handler:     handler,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  private,
		}
		if a.button != "" {
			handlers["button:"+a.command] = RegisteredHandler{
				HandlerType: tgbot.HandlerTypeMessageText,
				Pattern:     a.button,
				Handler:     handler,
				MatchType:   tgbot.MatchTypeExact,
				Middleware:  private,
			}
		}
	}

	handlers["dialog"] = RegisteredHandler{
		Handler:    NewDialogHandler(deps),
		MatchFunc:  MatchDialogText(deps.Config),
		Middleware: private,
	}

	return handlers
}

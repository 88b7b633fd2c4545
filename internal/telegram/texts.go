package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// UI texts in English
const (
	startText = "👋 I track your daily attendance.\n\n" +
		"Mark days with /present, /absent, /holiday or /unenrolled (today by default, " +
		"or pass a date like 2024-06-03).\n" +
		"Check totals with /month and /percent.\n" +
		"Group days into terms with /newsession and /select.\n" +
		"Set weekly days off with /daysoff. Sundays are always off."

	helpText = "Commands:\n" +
		"/present [date] — mark present\n" +
		"/absent [date] — mark absent\n" +
		"/holiday <name> [date] — mark a holiday\n" +
		"/unenrolled [date] — mark not enrolled\n" +
		"/month [YYYY-MM] — monthly percentage\n" +
		"/percent [session] — session percentage\n" +
		"/sessions — list sessions\n" +
		"/newsession <name> <start> [end] — create a session\n" +
		"/select <code or name> — pick the default session\n" +
		"/daysoff [mon,tue,...] — weekly days off\n" +
		"/reminders on|off — daily mark reminders"

	dateHint       = "Dates look like 2024-06-03."
	monthHint      = "Months look like 2024-06."
	storageErrText = "Couldn't reach storage. Please try again in a moment."
)

// mainMenuKeyboard offers the everyday commands as a reply keyboard.
func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/present"),
			tgbotapi.NewKeyboardButton("/absent"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/month"),
			tgbotapi.NewKeyboardButton("/percent"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

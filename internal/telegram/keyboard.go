package telegram

import (
	"fmt"

	"github.com/go-telegram/bot/models"
)

func InlineButton(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: callbackData}
}

// ToggleButton renders an on/off setting.
func ToggleButton(label string, on bool, callbackData string) models.InlineKeyboardButton {
	mark := "❌"
	if on {
		mark = "✅"
	}
	return InlineButton(fmt.Sprintf("%s %s", mark, label), callbackData)
}

func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func ButtonRow(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

// PaginationRow renders prev/next buttons around a "page/total" indicator
// whose callback data is NoopCallback.
func PaginationRow(page, totalPages int, callbackPrefix string) []models.InlineKeyboardButton {
	var row []models.InlineKeyboardButton
	if page > 0 {
		row = append(row, InlineButton("⬅️", fmt.Sprintf("%s%d", callbackPrefix, page-1)))
	}
	row = append(row, InlineButton(fmt.Sprintf("%d/%d", page+1, totalPages), NoopCallback))
	if page < totalPages-1 {
		row = append(row, InlineButton("➡️", fmt.Sprintf("%s%d", callbackPrefix, page+1)))
	}
	return row
}

const NoopCallback = "cur"

package msg

import (
	"fmt"

	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/slack-go/slack"
)

// Block Kit helpers shared by the bot replies and the sweep notifications.
// Button action IDs carry a types.ActionID; the value field carries the
// action's argument (a name, an index, an address).

// Section builds a markdown section block
func Section(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
		nil, nil,
	)
}

// SectionWithButton builds a markdown section with a button accessory
func SectionWithButton(text string, button *slack.ButtonBlockElement) *slack.SectionBlock {
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
		nil,
		slack.NewAccessory(button),
	)
}

// Button builds a button element for one of the bot's actions
func Button(action types.ActionID, value, label string) *slack.ButtonBlockElement {
	return slack.NewButtonBlockElement(
		action.String(),
		value,
		slack.NewTextBlockObject(slack.PlainTextType, label, false, false),
	)
}

// DangerButton builds a button with the danger style (e.g. erase data)
func DangerButton(action types.ActionID, value, label string) *slack.ButtonBlockElement {
	btn := Button(action, value, label)
	btn.Style = slack.StyleDanger
	return btn
}

// Actions builds an action block from a set of buttons. The block ID is
// derived from the first action so repeated renders remain distinguishable.
func Actions(buttons ...*slack.ButtonBlockElement) *slack.ActionBlock {
	elements := make([]slack.BlockElement, len(buttons))
	for i, b := range buttons {
		elements[i] = b
	}
	blockID := ""
	if len(buttons) > 0 {
		blockID = fmt.Sprintf("actions_%s", buttons[0].ActionID)
	}
	return slack.NewActionBlock(blockID, elements...)
}

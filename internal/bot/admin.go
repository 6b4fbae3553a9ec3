package bot

import (
	"fmt"

	"github.com/fitbro/fitbro/internal/report"
	"gopkg.in/telebot.v4"
)

const confirmToken = "confirm"

func (b *Bot) requireAdmin(uc *UpdateContext) error {
	if !b.config.IsAdmin(uc.Sender().ID) {
		return errNotAdmin
	}
	return nil
}

func confirmed(args []string) bool {
	return len(args) == 1 && args[0] == confirmToken
}

func (b *Bot) HandleReset(uc *UpdateContext) error {
	if err := b.requireAdmin(uc); err != nil {
		return err
	}
	if !confirmed(uc.TC().Args()) {
		return errNeedConfirm
	}

	if err := b.challenge.WipeAll(uc); err != nil {
		return fmt.Errorf("wiping data: %w", err)
	}
	b.prompts.Purge()

	uc.L().Warnf("admin %d wiped all data", uc.Sender().ID)
	b.reply(uc, "Everything is wiped. Send /start to join again.")
	return nil
}

func (b *Bot) HandleResetScores(uc *UpdateContext) error {
	if err := b.requireAdmin(uc); err != nil {
		return err
	}
	if !confirmed(uc.TC().Args()) {
		return errNeedConfirm
	}

	if err := b.challenge.ResetScores(uc); err != nil {
		return fmt.Errorf("resetting scores: %w", err)
	}
	b.prompts.Purge()

	uc.L().Warnf("admin %d reset the scores", uc.Sender().ID)
	b.reply(uc, "Scores are reset, everyone is back in with 10 points.")
	return nil
}

func (b *Bot) HandleExport(uc *UpdateContext) error {
	if err := b.requireAdmin(uc); err != nil {
		return err
	}

	month, users, stats, err := b.challenge.Standings(uc)
	if err != nil {
		return fmt.Errorf("loading standings: %w", err)
	}
	rows := make([]report.Row, 0, len(users))
	for i, u := range users {
		rows = append(rows, report.Row{User: u, Month: stats[i]})
	}

	buf, err := report.Build(month, rows)
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}

	doc := &telebot.Document{
		File:     telebot.FromReader(buf),
		FileName: fmt.Sprintf("fitbro-%s.xlsx", month),
		MIME:     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}
	if err := uc.TC().Send(doc); err != nil {
		uc.L().Warnf("failed to send report: %v", err)
	}
	return nil
}

package game

import (
	"time"

	"github.com/google/uuid"

	"starhold/pkg/types"
)

// pushMessage appends to the inbox, dropping the oldest entries past the cap.
func pushMessage(p *types.PlayerRecord, msg types.Message) {
	p.Inbox = append(p.Inbox, msg)
	if len(p.Inbox) > inboxLimit {
		p.Inbox = p.Inbox[len(p.Inbox)-inboxLimit:]
	}
}

func newMessage(kind types.MessageKind, now time.Time, subject, body string) types.Message {
	return types.Message{
		ID:        uuid.New().String(),
		Kind:      kind,
		CreatedAt: now,
		Subject:   subject,
		Body:      body,
	}
}

func (e *Engine) info(p *types.PlayerRecord, now time.Time, subject, body string) {
	pushMessage(p, newMessage(types.MsgInfo, now, subject, body))
}

func (e *Engine) eventNotice(p *types.PlayerRecord, now time.Time, subject, body string) {
	pushMessage(p, newMessage(types.MsgEventNotice, now, subject, body))
}

func (e *Engine) merchantNotice(p *types.PlayerRecord, now time.Time, subject, body string) {
	pushMessage(p, newMessage(types.MsgMerchant, now, subject, body))
}

func (e *Engine) battleReport(p *types.PlayerRecord, now time.Time, subject string, report *types.BattleReport) {
	msg := newMessage(types.MsgBattleReport, now, subject, "")
	msg.Battle = report
	pushMessage(p, msg)
}

func (e *Engine) spyReport(p *types.PlayerRecord, now time.Time, subject string, report *types.SpyReport) {
	msg := newMessage(types.MsgSpyReport, now, subject, "")
	msg.Spy = report
	pushMessage(p, msg)
}

func (e *Engine) expeditionOutcome(p *types.PlayerRecord, now time.Time, subject string, out *types.ExpeditionOutcome) {
	msg := newMessage(types.MsgExpedition, now, subject, "")
	msg.Expedition = out
	pushMessage(p, msg)
}

func (e *Engine) explorationOutcome(p *types.PlayerRecord, now time.Time, subject string, out *types.ExplorationOutcome) {
	msg := newMessage(types.MsgExploration, now, subject, "")
	msg.Exploration = out
	pushMessage(p, msg)
}

func (e *Engine) colonizationResult(p *types.PlayerRecord, now time.Time, subject, body string) {
	pushMessage(p, newMessage(types.MsgColonization, now, subject, body))
}

func (e *Engine) phalanxResult(p *types.PlayerRecord, now time.Time, subject string, scan *types.PhalanxScan) {
	msg := newMessage(types.MsgPhalanxScan, now, subject, "")
	msg.Phalanx = scan
	pushMessage(p, msg)
}

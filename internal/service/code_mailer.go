package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"schoolhub/onboard/internal/model"
)

// CodeMailer delivers a freshly issued code to its intended recipient. It
// is invoked by the issuance handler after the code is persisted, never by
// the redemption path, so a delivery failure cannot corrupt accounting.
type CodeMailer struct {
	sender        MailSender
	redemptionURL string // template with a single %s for the code
	logger        *zap.Logger
}

func NewCodeMailer(sender MailSender, redemptionURL string, logger *zap.Logger) *CodeMailer {
	return &CodeMailer{
		sender:        sender,
		redemptionURL: redemptionURL,
		logger:        logger,
	}
}

var mailSubjects = map[model.ScopeKind]string{
	model.ScopeSchoolInvitation: "You have been invited to join a school",
	model.ScopeCourseEnrollment: "Your course enrollment code",
	model.ScopeTeacherJoin:      "Your teacher join link",
}

// SendIssued emails the code and its redemption link. Errors are logged and
// swallowed: the code is already live and can still be shared out-of-band.
func (m *CodeMailer) SendIssued(ctx context.Context, code *model.AccessCode) {
	if m.sender == nil || code.RequiredEmail == nil {
		return
	}

	body := fmt.Sprintf("Your access code is %s.", code.Code)
	if m.redemptionURL != "" {
		body += fmt.Sprintf("\n\nRedeem it here: %s", fmt.Sprintf(m.redemptionURL, code.Code))
	}
	if code.ExpiresAt != nil {
		body += fmt.Sprintf("\n\nThis code expires on %s.", code.ExpiresAt.Format("Jan 2, 2006 15:04 MST"))
	}
	if code.Message != "" {
		body += "\n\n" + code.Message
	}

	if err := m.sender.Send(ctx, *code.RequiredEmail, mailSubjects[code.Kind], body); err != nil {
		m.logger.Warn("failed to send code email",
			zap.String("code_id", code.ID.String()),
			zap.Error(err),
		)
	}
}

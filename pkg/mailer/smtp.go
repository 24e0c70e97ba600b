package mailer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ai-sales-report/pkg/models"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// implicitTLSPort このポートでは接続直後からTLSを使う（SMTPS）
const implicitTLSPort = 465

// TransportError SMTPサーバーへの接続・認証・送信の失敗
type TransportError struct {
	Host  string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("メール送信に失敗しました (%s): %v", e.Host, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Options SMTP接続設定。認証情報は環境変数から読み込んだ値を渡す。
type Options struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	Recipient string
	Timeout   time.Duration
}

// SMTPDispatcher TLS経由のSMTPでレポートを送信する
type SMTPDispatcher struct {
	opts   Options
	logger *zap.Logger
}

// NewSMTPDispatcher 新しいSMTPDispatcherを作成
func NewSMTPDispatcher(opts Options, logger *zap.Logger) *SMTPDispatcher {
	if opts.From == "" {
		opts.From = opts.Username
	}
	if opts.Recipient == "" {
		opts.Recipient = opts.Username
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPDispatcher{opts: opts, logger: logger}
}

// Send メッセージを組み立てて送信する。リトライはしない。
func (d *SMTPDispatcher) Send(ctx context.Context, msg models.ReportMessage) error {
	m, err := d.buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(d.opts.Host, d.clientOptions()...)
	if err != nil {
		return &TransportError{Host: d.opts.Host, Cause: err}
	}

	d.logger.Info("📧 [メール] 送信を開始します",
		zap.String("host", d.opts.Host),
		zap.Int("port", d.opts.Port),
		zap.Int("attachments", len(msg.Attachments)),
	)
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return &TransportError{Host: d.opts.Host, Cause: err}
	}

	d.logger.Info("✅ [メール] 送信が完了しました", zap.String("subject", msg.Subject))
	return nil
}

func (d *SMTPDispatcher) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(d.opts.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(d.opts.Username),
		mail.WithPassword(d.opts.Password),
	}
	if d.opts.Port == implicitTLSPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if d.opts.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(d.opts.Timeout))
	}
	return opts
}

// buildMessage 本文はプレーンテキスト、添付はファイル名のみをヘッダーに付ける
func (d *SMTPDispatcher) buildMessage(msg models.ReportMessage) (*mail.Msg, error) {
	if d.opts.Recipient == "" {
		return nil, errors.New("送信先アドレスが設定されていません")
	}

	m := mail.NewMsg()
	if err := m.From(d.opts.From); err != nil {
		return nil, fmt.Errorf("送信元アドレスが不正です: %w", err)
	}
	if err := m.To(d.opts.Recipient); err != nil {
		return nil, fmt.Errorf("送信先アドレスが不正です: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	for _, path := range msg.Attachments {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("添付ファイルが見つかりません: %w", err)
		}
		m.AttachFile(path, mail.WithFileName(filepath.Base(path)))
	}
	return m, nil
}

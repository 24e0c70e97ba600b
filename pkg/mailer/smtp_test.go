package mailer

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ai-sales-report/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func closedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestNewSMTPDispatcherDefaultsToUsername(t *testing.T) {
	d := NewSMTPDispatcher(Options{Username: "reports@example.com"}, nil)
	assert.Equal(t, "reports@example.com", d.opts.From)
	assert.Equal(t, "reports@example.com", d.opts.Recipient)
}

func TestBuildMessage(t *testing.T) {
	chart := filepath.Join(t.TempDir(), "sales_by_product.png")
	require.NoError(t, os.WriteFile(chart, []byte("png"), 0o644))

	d := NewSMTPDispatcher(Options{Username: "from@example.com", Recipient: "to@example.com"}, nil)
	m, err := d.buildMessage(models.ReportMessage{
		Subject:     "Daily AI Sales Summary",
		Body:        "Transactions: 50",
		Attachments: []string{chart},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "Subject: Daily AI Sales Summary")
	assert.Contains(t, raw, "to@example.com")
	assert.Contains(t, raw, `filename="sales_by_product.png"`)
}

func TestBuildMessageMissingAttachment(t *testing.T) {
	d := NewSMTPDispatcher(Options{Username: "from@example.com"}, nil)
	_, err := d.buildMessage(models.ReportMessage{Attachments: []string{"/nonexistent/chart.png"}})
	assert.Error(t, err)
}

func TestBuildMessageWithoutRecipient(t *testing.T) {
	d := NewSMTPDispatcher(Options{}, nil)
	_, err := d.buildMessage(models.ReportMessage{Subject: "s"})
	assert.Error(t, err)
}

func TestSendUnreachableServerIsTransportError(t *testing.T) {
	d := NewSMTPDispatcher(Options{
		Host:     "127.0.0.1",
		Port:     closedPort(t),
		Username: "from@example.com",
		Password: "not-a-real-password",
		Timeout:  2 * time.Second,
	}, zaptest.NewLogger(t))

	err := d.Send(context.Background(), models.ReportMessage{Subject: "s", Body: "b"})
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "127.0.0.1", transportErr.Host)
}

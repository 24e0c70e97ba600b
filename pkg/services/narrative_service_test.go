package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-sales-report/pkg/models"
	"ai-sales-report/pkg/services"
	mock_services "ai-sales-report/pkg/services/mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testFacts() *models.SummaryFacts {
	return &models.SummaryFacts{
		RecordCount: 2,
		Average:     1500,
		Median:      1500,
		Mode:        models.ModeResult{Unique: false},
		Min:         models.ExtremeSale{OrderID: 1000, Total: 1000, Product: "Ships", Country: "India"},
		Max:         models.ExtremeSale{OrderID: 1001, Total: 2000, Product: "Planes", Country: "Germany"},
		TopProducts: []models.GroupTotal{{Label: "Planes", Total: 2000, Count: 1}, {Label: "Ships", Total: 1000, Count: 1}},
		TopCountries: []models.GroupTotal{
			{Label: "Germany", Total: 2000, Count: 1}, {Label: "India", Total: 1000, Count: 1},
		},
		Recommendation: "Focus on Planes.",
	}
}

func testSample() []models.SaleRecord {
	return []models.SaleRecord{
		{OrderID: 1000, Product: "Ships", Quantity: 2, UnitPrice: 500, Region: "East", Country: "India", Total: 1000},
	}
}

func fastOptions() services.NarrativeOptions {
	opts := services.DefaultNarrativeOptions()
	opts.Timeout = time.Second
	opts.RetryDelay = 0
	return opts
}

func TestNarrativeBuildPrompt(t *testing.T) {
	svc := services.NewNarrativeService(nil, nil, fastOptions(), nil)

	prompt := svc.BuildPrompt(testFacts(), testSample())

	for _, section := range []string{"Sales Trends", "Anomalies", "Observations", "Recommendations"} {
		assert.Contains(t, prompt, "**"+section+"**")
	}
	assert.Contains(t, prompt, "Facts:\n- Transactions: 2")
	assert.Contains(t, prompt, "- Mode: No unique mode")
	assert.Contains(t, prompt, "Data sample (first 1 of 2 transactions):")
	assert.Contains(t, prompt, "1000 | Ships | 2 | 500.00 | East | India | 1000.00")
	assert.Contains(t, prompt, "Sales Distribution per Product (Box Plot)")
	assert.True(t, strings.HasSuffix(prompt, "Write the full response."))
}

func TestNarrativeBuildPromptWithoutSample(t *testing.T) {
	svc := services.NewNarrativeService(nil, nil, fastOptions(), nil)

	prompt := svc.BuildPrompt(testFacts(), nil)
	assert.NotContains(t, prompt, "Data sample")
}

func TestNarrativeGenerate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	opts := fastOptions()
	boom := errors.New("upstream 503")

	tests := []struct {
		name         string
		setup        func(m *mock_services.MockTextGenerator)
		want         string
		wantErr      bool
		wantAttempts int
	}{
		{
			name: "success trims response",
			setup: func(m *mock_services.MockTextGenerator) {
				m.EXPECT().Generate(gomock.Any(), gomock.Any(), opts.Params).Return("\n## Sales Trends\nUp.\n  ", nil)
			},
			want: "## Sales Trends\nUp.",
		},
		{
			name: "retries once then succeeds",
			setup: func(m *mock_services.MockTextGenerator) {
				gomock.InOrder(
					m.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Return("", boom),
					m.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil),
				)
			},
			want: "ok",
		},
		{
			name: "gives up after one retry",
			setup: func(m *mock_services.MockTextGenerator) {
				m.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Return("", boom).Times(2)
			},
			wantErr:      true,
			wantAttempts: 2,
		},
		{
			name: "empty output is a failure",
			setup: func(m *mock_services.MockTextGenerator) {
				m.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Return("   ", nil).Times(2)
			},
			wantErr:      true,
			wantAttempts: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := mock_services.NewMockTextGenerator(ctrl)
			tt.setup(client)
			svc := services.NewNarrativeService(client, nil, opts, zaptest.NewLogger(t))

			got, err := svc.Generate(context.Background(), testFacts(), testSample())
			if tt.wantErr {
				var narrErr *services.NarrativeError
				require.True(t, errors.As(err, &narrErr), "expected *NarrativeError, got %v", err)
				assert.Equal(t, tt.wantAttempts, narrErr.Attempts)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNarrativeGenerateEmptyIsMalformed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mock_services.NewMockTextGenerator(ctrl)
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Return("", nil).Times(2)
	svc := services.NewNarrativeService(client, nil, fastOptions(), nil)

	_, err := svc.Generate(context.Background(), testFacts(), nil)
	assert.True(t, errors.Is(err, services.ErrEmptyNarrative))
}

func TestNarrativeGenerateTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	opts := fastOptions()
	opts.Timeout = 20 * time.Millisecond

	client := mock_services.NewMockTextGenerator(ctrl)
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ models.GenerationParams) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}).Times(2)
	svc := services.NewNarrativeService(client, nil, opts, nil)

	_, err := svc.Generate(context.Background(), testFacts(), nil)
	var narrErr *services.NarrativeError
	require.True(t, errors.As(err, &narrErr))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNarrativeGenerateStopsOnCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	client := mock_services.NewMockTextGenerator(ctrl)
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, models.GenerationParams) (string, error) {
			cancel()
			return "", context.Canceled
		}).Times(1)
	svc := services.NewNarrativeService(client, nil, fastOptions(), nil)

	_, err := svc.Generate(ctx, testFacts(), nil)
	var narrErr *services.NarrativeError
	require.True(t, errors.As(err, &narrErr))
	assert.Equal(t, 1, narrErr.Attempts)
}

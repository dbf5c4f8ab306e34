package mysouku

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/mysouku/advisor"
	"github.com/tsawler/mysouku/internal/pdftest"
	"github.com/tsawler/mysouku/logger"
	"github.com/tsawler/mysouku/model"
	"github.com/tsawler/mysouku/reader"
)

func init() {
	logger.Discard()
}

func broker() model.BrokerProfile {
	return model.BrokerProfile{
		CompanyName:   "株式会社サンプル不動産",
		PostalCode:    "100-0001",
		Address:       "東京都千代田区千代田1-1-1",
		Phone:         "03-1234-5678",
		Fax:           "03-1234-5679",
		Email:         "info@sample-realestate.co.jp",
		LicenseNumber: "東京都知事(1)第12345号",
	}
}

func footerFlyer(pages int) []byte {
	ps := make([]pdftest.Page, pages)
	for i := range ps {
		ps[i] = pdftest.A4(
			pdftest.Text{X: 72, Y: 700, Size: 18, S: "2LDK"},
			pdftest.Text{X: 40, Y: 40, S: "株式会社テスト不動産"},
			pdftest.Text{X: 300, Y: 40, S: "TEL 03-0000-0000"},
		)
	}
	return pdftest.Build(ps...)
}

func plainFlyer() []byte {
	return pdftest.Build(pdftest.A4(pdftest.Text{X: 72, Y: 700, S: "Spacious 2LDK near the station"}))
}

func newConverter(t *testing.T, mutate func(*Config)) *Converter {
	t.Helper()
	cfg := NewDefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	c, err := NewConverter(cfg)
	require.NoError(t, err)
	return c
}

func TestConvert_KeywordFooter(t *testing.T) {
	c := newConverter(t, nil)

	doc, err := c.Convert(context.Background(), footerFlyer(1), broker())
	require.NoError(t, err)

	assert.Equal(t, 80.0, doc.Decision.HeightMM)
	assert.Equal(t, 80, doc.Decision.Confidence)
	assert.Equal(t, model.SourceKeyword, doc.Decision.Source)
	assert.Nil(t, doc.Advice)
	assert.NotEmpty(t, doc.ID)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, model.PageOverlaid, doc.Pages[0].Status)
	assert.Equal(t, "overlaid", doc.Pages[0].StatusText)
}

func TestConvert_NoKeywordsNoAdvisor(t *testing.T) {
	c := newConverter(t, nil)

	doc, err := c.Convert(context.Background(), plainFlyer(), broker())
	require.NoError(t, err)

	assert.Equal(t, 40.0, doc.Decision.HeightMM)
	assert.Equal(t, 40, doc.Decision.Confidence)
}

func TestConvert_AdvisorWithHigherConfidenceWins(t *testing.T) {
	c := newConverter(t, func(cfg *Config) {
		// One keyword match scores 45 + 10 = 55.
		cfg.Locator.BaseConfidence = 45
		cfg.Advisor = advisor.Static{Candidate: model.FooterCandidate{HeightMM: 25, Confidence: 90}}
	})
	data := pdftest.Build(pdftest.A4(pdftest.Text{X: 40, Y: 40, S: "TEL 03-0000-0000"}))

	doc, err := c.Convert(context.Background(), data, broker())
	require.NoError(t, err)

	assert.Equal(t, 55, doc.Keyword.Confidence)
	require.NotNil(t, doc.Advice)
	assert.Equal(t, 90, doc.Decision.Confidence)
	assert.Equal(t, 25.0, doc.Decision.HeightMM)
	assert.Equal(t, model.SourceHeuristic, doc.Decision.Source)
}

func TestConvert_UnavailableAdvisorDegrades(t *testing.T) {
	c := newConverter(t, func(cfg *Config) {
		cfg.Advisor = advisor.Func(func(ctx context.Context, _ string) (*model.FooterCandidate, error) {
			return nil, advisor.ErrUnavailable
		})
	})

	doc, err := c.Convert(context.Background(), footerFlyer(1), broker())
	require.NoError(t, err)
	assert.Nil(t, doc.Advice)
	assert.Equal(t, 80.0, doc.Decision.HeightMM)
}

func TestConvert_AdvisorTimeout(t *testing.T) {
	c := newConverter(t, func(cfg *Config) {
		cfg.AdvisorTimeout = 10 * time.Millisecond
		cfg.Advisor = advisor.Func(func(ctx context.Context, _ string) (*model.FooterCandidate, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
	})

	doc, err := c.Convert(context.Background(), plainFlyer(), broker())
	require.NoError(t, err)
	assert.Nil(t, doc.Advice)
	assert.Equal(t, 40.0, doc.Decision.HeightMM)
}

func TestConvert_FatalErrors(t *testing.T) {
	c := newConverter(t, nil)
	ctx := context.Background()

	_, err := c.Convert(ctx, footerFlyer(1), model.BrokerProfile{})
	assert.ErrorIs(t, err, ErrProfileMissing)

	_, err = c.Convert(ctx, footerFlyer(1), model.BrokerProfile{CompanyName: "   "})
	assert.ErrorIs(t, err, ErrProfileMissing)

	_, err = c.Convert(ctx, []byte("definitely not a pdf"), broker())
	assert.ErrorIs(t, err, ErrUnparseable)

	_, err = c.Convert(ctx, nil, broker())
	assert.ErrorIs(t, err, ErrUnparseable)

	encrypted := pdftest.BuildWith(pdftest.Options{Encrypt: true}, pdftest.A4())
	_, err = c.Convert(ctx, encrypted, broker())
	assert.ErrorIs(t, err, ErrEncrypted)
}

func TestConvert_InputSizeLimit(t *testing.T) {
	c := newConverter(t, func(cfg *Config) { cfg.MaxInputBytes = 100 })
	_, err := c.Convert(context.Background(), footerFlyer(1), broker())
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestConvertDocument_PageCountPreserved(t *testing.T) {
	c := newConverter(t, nil)
	input := footerFlyer(3)

	out, err := c.ConvertDocument(context.Background(), input, broker())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, input), "original bytes must be kept")

	doc, err := reader.Open(out, reader.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, doc.NumPages())
}

func TestConvertDocument_Idempotent(t *testing.T) {
	c := newConverter(t, nil)
	input := footerFlyer(2)

	a, err := c.ConvertDocument(context.Background(), input, broker())
	require.NoError(t, err)
	b, err := c.ConvertDocument(context.Background(), input, broker())
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b), "identical inputs must give identical output")
}

func TestConvert_BrokenPageKeptOriginal(t *testing.T) {
	good := pdftest.A4(pdftest.Text{X: 40, Y: 40, S: "TEL 03-0000-0000"})
	broken := pdftest.A4()
	broken.Contents = "42"
	input := pdftest.Build(good, broken, good)

	c := newConverter(t, nil)
	doc, err := c.Convert(context.Background(), input, broker())
	require.NoError(t, err)

	require.Len(t, doc.Pages, 3)
	assert.Equal(t, model.PageOverlaid, doc.Pages[0].Status)
	assert.Equal(t, model.PageOriginal, doc.Pages[1].Status)
	assert.NotEmpty(t, doc.Pages[1].Err)
	assert.Equal(t, model.PageOverlaid, doc.Pages[2].Status)
	assert.Equal(t, 2, doc.OverlaidCount())

	tail := doc.Bytes[len(input):]
	assert.True(t, bytes.HasPrefix(tail, []byte("7 0 obj")), "first page must get a new revision")
	assert.Contains(t, string(tail), "\n11 0 obj")
	assert.NotContains(t, string(tail), "\n9 0 obj", "broken page must keep its original object")
}

func TestConvert_PerPage(t *testing.T) {
	c := newConverter(t, func(cfg *Config) { cfg.PerPage = true })
	input := pdftest.Build(
		pdftest.A4(pdftest.Text{X: 40, Y: 40, S: "TEL 03-0000-0000"}),
		pdftest.A4(pdftest.Text{X: 72, Y: 700, S: "No broker here"}),
	)

	doc, err := c.Convert(context.Background(), input, broker())
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, 80.0, doc.Pages[0].Decision.HeightMM)
	assert.Equal(t, 40.0, doc.Pages[1].Decision.HeightMM)
}

func TestConvert_DecideOnceByDefault(t *testing.T) {
	c := newConverter(t, nil)
	input := pdftest.Build(
		pdftest.A4(pdftest.Text{X: 72, Y: 700, S: "No broker here"}),
		pdftest.A4(pdftest.Text{X: 40, Y: 40, S: "TEL 03-0000-0000"}),
	)

	doc, err := c.Convert(context.Background(), input, broker())
	require.NoError(t, err)
	for _, p := range doc.Pages {
		assert.Equal(t, 40.0, p.Decision.HeightMM, "page %d", p.Index)
	}
}

func TestConvert_WaitsForSlot(t *testing.T) {
	c := newConverter(t, func(cfg *Config) { cfg.MaxConcurrentDocuments = 1 })
	require.NoError(t, c.sem.Acquire(context.Background(), 1))
	defer c.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Convert(ctx, footerFlyer(1), broker())
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestDetectFooter(t *testing.T) {
	c := newConverter(t, nil)

	report, err := c.DetectFooter(context.Background(), footerFlyer(1))
	require.NoError(t, err)

	assert.Equal(t, 842.0, report.PageHeight)
	assert.Equal(t, 595.0, report.PageWidth)
	assert.Equal(t, []string{"株式会社", "TEL"}, report.KeywordsFound)
	assert.InDelta(t, model.MMToPoints(80), report.FooterY, 1e-9)
	assert.Equal(t, 80, report.Keyword.Confidence)
}

func TestDetectFooter_ContentsArray(t *testing.T) {
	c := newConverter(t, nil)
	p := pdftest.A4(
		pdftest.Text{X: 72, Y: 700, Size: 18, S: "2LDK"},
		pdftest.Text{X: 40, Y: 40, S: "株式会社テスト不動産"},
		pdftest.Text{X: 300, Y: 40, S: "TEL 03-0000-0000"},
	)
	p.Contents = "[8 0 R]"

	report, err := c.DetectFooter(context.Background(), pdftest.Build(p))
	require.NoError(t, err)
	assert.Equal(t, []string{"株式会社", "TEL"}, report.KeywordsFound)
	assert.Equal(t, 80.0, report.Decision.HeightMM)
}

func TestDetectFooter_ConvertedOutput(t *testing.T) {
	c := newConverter(t, nil)
	out, err := c.ConvertDocument(context.Background(), footerFlyer(1), broker())
	require.NoError(t, err)

	report, err := c.DetectFooter(context.Background(), out)
	require.NoError(t, err)
	assert.NotEmpty(t, report.KeywordsFound, "converted pages must stay readable")
	assert.Equal(t, model.SourceKeyword, report.Keyword.Source)
}

func TestExtractListing(t *testing.T) {
	c := newConverter(t, nil)
	input := pdftest.Build(pdftest.A4(
		pdftest.Text{X: 72, Y: 700, S: "賃料：8万円"},
		pdftest.Text{X: 72, Y: 650, S: "2LDK"},
		pdftest.Text{X: 72, Y: 600, S: "マンション"},
	))

	l, raw, err := c.ExtractListing(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, raw, "2LDK")
	assert.Equal(t, "8万円", l.Price)
	assert.Equal(t, "2LDK", l.FloorPlan)
	assert.Equal(t, "マンション", l.PropertyType)
	assert.Equal(t, "賃貸", l.TransactionType)
}

func TestNewConverter_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MaxWorkers = 0
	_, err := NewConverter(cfg)
	assert.Error(t, err)

	cfg = NewDefaultConfig()
	cfg.Overlay.CenterColumnEnd = 0.2
	_, err = NewConverter(cfg)
	assert.Error(t, err)
}

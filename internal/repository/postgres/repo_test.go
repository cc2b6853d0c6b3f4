package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/podsight/attribution-engine/internal/domain"
	"github.com/podsight/attribution-engine/internal/service/reporting"
)

func setupTestDB(t *testing.T) (*Repo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return NewRepo(db), mock, func() { db.Close() }
}

func TestCreateAndGetConversion(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	occurred := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	conv := &domain.Conversion{
		ID:         "conv-1",
		CampaignID: "camp-1",
		OccurredAt: occurred,
		Value:      99.5,
	}

	mock.ExpectExec("INSERT INTO podsight_conversions").
		WithArgs(conv.ID, conv.CampaignID, conv.OccurredAt, conv.Value).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CreateConversion(context.Background(), conv); err != nil {
		t.Fatalf("CreateConversion() error: %v", err)
	}

	rows := sqlmock.NewRows([]string{"id", "campaign_id", "occurred_at", "value", "attributed_at", "created_at"}).
		AddRow("conv-1", "camp-1", occurred, 99.5, nil, occurred)
	mock.ExpectQuery("SELECT (.+) FROM podsight_conversions").
		WithArgs("conv-1").
		WillReturnRows(rows)

	got, err := repo.GetConversion(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("GetConversion() error: %v", err)
	}
	if got.CampaignID != "camp-1" || got.Value != 99.5 {
		t.Errorf("GetConversion() = %+v", got)
	}
	if got.AttributedAt != nil {
		t.Errorf("AttributedAt should be nil for fresh conversion, got %v", got.AttributedAt)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetConversion_NotFound(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM podsight_conversions").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetConversion(context.Background(), "nope")
	if !errors.Is(err, reporting.ErrConversionNotFound) {
		t.Errorf("expected ErrConversionNotFound, got %v", err)
	}
}

func TestMarkAttributed_NotFound(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("UPDATE podsight_conversions").
		WithArgs("nope", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkAttributed(context.Background(), "nope", time.Now().UTC())
	if !errors.Is(err, reporting.ErrConversionNotFound) {
		t.Errorf("expected ErrConversionNotFound, got %v", err)
	}
}

func TestInsertRawEvent_DefaultsEmptyPayload(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	ev := domain.RawEvent{
		ID:         "ev-1",
		CampaignID: "camp-1",
		Channel:    domain.ChannelPixel,
		OccurredAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO podsight_raw_events").
		WithArgs(ev.ID, ev.CampaignID, string(ev.Channel), ev.OccurredAt, []byte("{}")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.InsertRawEvent(context.Background(), ev); err != nil {
		t.Fatalf("InsertRawEvent() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListRawEvents(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	convAt := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "campaign_id", "channel", "occurred_at", "payload"}).
		AddRow("ev-1", "camp-1", "pixel", convAt.AddDate(0, 0, -5), []byte(`{"ip":"10.0.0.1"}`)).
		AddRow("ev-2", "camp-1", "promo_code", convAt.AddDate(0, 0, -1), []byte(`{"code":"POD20"}`))

	mock.ExpectQuery("SELECT (.+) FROM podsight_raw_events").
		WithArgs("camp-1", sqlmock.AnyArg(), convAt).
		WillReturnRows(rows)

	events, err := repo.ListRawEvents(context.Background(), "camp-1", convAt, 30)
	if err != nil {
		t.Fatalf("ListRawEvents() error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Channel != domain.ChannelPixel {
		t.Errorf("expected pixel channel first, got %s", events[0].Channel)
	}
}

func TestUpsertResult(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	res := domain.AttributionResult{
		ConversionID:    "conv-1",
		CampaignID:      "camp-1",
		Model:           domain.ModelLinear,
		Credits:         map[string]float64{"tp-a": 0.5, "tp-b": 0.5},
		Revenue:         map[string]float64{"tp-a": 50, "tp-b": 50},
		ConversionValue: 100,
		ComputedAt:      time.Now().UTC(),
	}

	credits, _ := json.Marshal(res.Credits)
	revenue, _ := json.Marshal(res.Revenue)

	mock.ExpectExec("INSERT INTO podsight_attribution_results").
		WithArgs(res.ConversionID, res.CampaignID, string(res.Model),
			credits, revenue, res.ConversionValue, res.ComputedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpsertResult(context.Background(), res); err != nil {
		t.Fatalf("UpsertResult() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListResultsByCampaign(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	computed := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"conversion_id", "campaign_id", "model", "credits", "revenue", "conversion_value", "computed_at"}).
		AddRow("conv-1", "camp-1", "linear", []byte(`{"tp-a":1}`), []byte(`{"tp-a":100}`), 100.0, computed)

	mock.ExpectQuery("SELECT (.+) FROM podsight_attribution_results").
		WithArgs("camp-1", string(domain.ModelLinear)).
		WillReturnRows(rows)

	results, err := repo.ListResultsByCampaign(context.Background(), "camp-1", domain.ModelLinear)
	if err != nil {
		t.Fatalf("ListResultsByCampaign() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Credits["tp-a"] != 1 {
		t.Errorf("credits not decoded: %+v", results[0].Credits)
	}
}

func TestGetSpend_NotFound(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT spend FROM podsight_campaigns").
		WithArgs("camp-x").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetSpend(context.Background(), "camp-x")
	if !errors.Is(err, reporting.ErrCampaignNotFound) {
		t.Errorf("expected ErrCampaignNotFound, got %v", err)
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	roi := 0.25
	updated := time.Now().UTC()
	s := domain.CampaignROISummary{
		CampaignID:        "camp-1",
		Model:             domain.ModelFirstTouch,
		AttributedRevenue: 500,
		Conversions:       3,
		Spend:             400,
		ROI:               &roi,
		UpdatedAt:         updated,
	}

	mock.ExpectExec("INSERT INTO podsight_roi_summaries").
		WithArgs(s.CampaignID, string(s.Model), s.AttributedRevenue, s.Conversions, s.Spend, s.ROI, s.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpsertSummary(context.Background(), s); err != nil {
		t.Fatalf("UpsertSummary() error: %v", err)
	}

	rows := sqlmock.NewRows([]string{"campaign_id", "model", "attributed_revenue", "conversions", "spend", "roi", "updated_at"}).
		AddRow("camp-1", "first_touch", 500.0, 3, 400.0, roi, updated)
	mock.ExpectQuery("SELECT (.+) FROM podsight_roi_summaries").
		WithArgs("camp-1", string(domain.ModelFirstTouch)).
		WillReturnRows(rows)

	got, err := repo.GetSummary(context.Background(), "camp-1", domain.ModelFirstTouch)
	if err != nil {
		t.Fatalf("GetSummary() error: %v", err)
	}
	if got.ROI == nil || *got.ROI != 0.25 {
		t.Errorf("ROI = %v, want 0.25", got.ROI)
	}
}

func TestGetSummary_NilROI(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"campaign_id", "model", "attributed_revenue", "conversions", "spend", "roi", "updated_at"}).
		AddRow("camp-1", "linear", 500.0, 3, 0.0, nil, time.Now().UTC())
	mock.ExpectQuery("SELECT (.+) FROM podsight_roi_summaries").
		WithArgs("camp-1", string(domain.ModelLinear)).
		WillReturnRows(rows)

	got, err := repo.GetSummary(context.Background(), "camp-1", domain.ModelLinear)
	if err != nil {
		t.Fatalf("GetSummary() error: %v", err)
	}
	if got.ROI != nil {
		t.Errorf("ROI should be nil when spend is zero, got %v", *got.ROI)
	}
}

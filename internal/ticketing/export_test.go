package ticketing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// exportServer fakes the exporter-run endpoint plus a download URL whose
// responses are scripted per poll.
func exportServer(t *testing.T, poll func(call int32, w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	var polls atomic.Int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)

	mux.HandleFunc("POST /api/v1/organizers/sticky/events/intro/exporters/json/run/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"download": "` + srv.URL + `/download/abc"}`))
	})
	mux.HandleFunc("POST /api/v1/organizers/sticky/events/intro/exporters/pdfreport/run/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"download": "` + srv.URL + `/download/abc"}`))
	})
	mux.HandleFunc("GET /download/abc", func(w http.ResponseWriter, r *http.Request) {
		poll(polls.Add(1), w)
	})
	return srv
}

func TestExportOrderData_PendingThenReady(t *testing.T) {
	srv := exportServer(t, func(call int32, w http.ResponseWriter) {
		if call <= 2 {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.Write([]byte(`{"event": {
			"orders": [{"fees": [{"value": "0.35"}], "datetime": "2026-08-17T12:00:00+02:00", "total": "10.00", "positions": [{"item": 7, "price": "9.65"}]}],
			"items": [{"id": 7, "name": "Ticket", "tax_rate": "21.00"}]
		}}`))
	})
	defer srv.Close()

	c := New(srv.URL, "tok")
	start := time.Now()
	export, err := c.ExportOrderData(context.Background(), "sticky", "intro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Two pending polls means two sleeps of the fixed interval.
	if elapsed := time.Since(start); elapsed < 2*pollInterval {
		t.Fatalf("expected at least %v of backoff, got %v", 2*pollInterval, elapsed)
	}
	if len(export.Orders) != 1 || len(export.Items) != 1 {
		t.Fatalf("unexpected export: %+v", export)
	}
	if !export.Orders[0].Total.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("unexpected total: %s", export.Orders[0].Total)
	}
	if export.Items[0].Name != "Ticket" {
		t.Fatalf("unexpected item: %+v", export.Items[0])
	}
}

func TestExportOrderData_AmountsAsNumbers(t *testing.T) {
	srv := exportServer(t, func(call int32, w http.ResponseWriter) {
		w.Write([]byte(`{"event": {
			"orders": [{"fees": [{"value": 0.35}], "datetime": "2026-08-17T12:00:00+02:00", "total": 10, "positions": []}],
			"items": []
		}}`))
	})
	defer srv.Close()

	c := New(srv.URL, "tok")
	export, err := c.ExportOrderData(context.Background(), "sticky", "intro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !export.Orders[0].Fees[0].Value.Equal(decimal.RequireFromString("0.35")) {
		t.Fatalf("unexpected fee: %s", export.Orders[0].Fees[0].Value)
	}
}

func TestExport_Failed(t *testing.T) {
	srv := exportServer(t, func(call int32, w http.ResponseWriter) {
		w.WriteHeader(http.StatusGone)
		w.Write([]byte(`{"message": "no orders in range"}`))
	})
	defer srv.Close()

	c := New(srv.URL, "tok")
	_, err := c.ExportOrderData(context.Background(), "sticky", "intro")
	var failed *ExportFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected *ExportFailedError, got %T: %v", err, err)
	}
	if failed.Reason != "no orders in range" {
		t.Fatalf("unexpected reason: %q", failed.Reason)
	}
}

func TestExport_UnexpectedStatus(t *testing.T) {
	srv := exportServer(t, func(call int32, w http.ResponseWriter) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer srv.Close()

	c := New(srv.URL, "tok")
	_, err := c.ExportOrderData(context.Background(), "sticky", "intro")
	var unexpected *UnexpectedStatusError
	if !errors.As(err, &unexpected) {
		t.Fatalf("expected *UnexpectedStatusError, got %T: %v", err, err)
	}
	if unexpected.StatusCode != 503 {
		t.Fatalf("expected status 503, got %d", unexpected.StatusCode)
	}
}

func TestExport_PollCancellation(t *testing.T) {
	srv := exportServer(t, func(call int32, w http.ResponseWriter) {
		w.WriteHeader(http.StatusConflict)
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	c := New(srv.URL, "tok")
	_, err := c.ExportOrderData(ctx, "sticky", "intro")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestExportReportPDF_ParamsAndBytes(t *testing.T) {
	var gotParams map[string]string
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("POST /api/v1/organizers/sticky/events/intro/exporters/pdfreport/run/", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotParams); err != nil {
			t.Fatalf("decoding params: %v", err)
		}
		w.Write([]byte(`{"download": "` + srv.URL + `/download/pdf"}`))
	})
	mux.HandleFunc("GET /download/pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.7 fake"))
	})

	from := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)

	c := New(srv.URL, "tok")
	pdf, err := c.ExportReportPDF(context.Background(), "sticky", "intro", from, until)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(pdf) != "%PDF-1.7 fake" {
		t.Fatalf("unexpected body: %q", pdf)
	}
	if gotParams["date_axis"] != "last_payment_date" {
		t.Fatalf("unexpected date_axis: %q", gotParams["date_axis"])
	}
	if gotParams["date_from"] != "2026-08-17" || gotParams["date_until"] != "2026-08-23" {
		t.Fatalf("unexpected range: %+v", gotParams)
	}
}

func TestExporters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/organizers/sticky/events/intro/exporters" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"next": null, "results": [
			{"identifier": "json", "verbose_name": "Order data", "input_parameters": []},
			{"identifier": "pdfreport", "verbose_name": "Report", "input_parameters": [{"name": "date_axis", "required": true, "choices": ["last_payment_date"]}]}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	exporters, err := c.Exporters(context.Background(), "sticky", "intro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exporters) != 2 {
		t.Fatalf("expected 2 exporters, got %d", len(exporters))
	}
	if exporters[1].InputParameters[0].Name != "date_axis" {
		t.Fatalf("unexpected parameters: %+v", exporters[1])
	}
}

package epics

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientGetValue(t *testing.T) {
	var gotName string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pv" {
			t.Errorf("path = %q, want /api/pv", r.URL.Path)
		}
		gotName = r.URL.Query().Get("name")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"GDET:FEE1:241:ENRCHSTCUHBR","values":[1.5,null,2.5]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	vals, err := c.GetValue(context.Background(), "GDET:FEE1:241:ENRCHSTCUHBR")
	if err != nil {
		t.Fatalf("GetValue returned error: %v", err)
	}
	if gotName != "GDET:FEE1:241:ENRCHSTCUHBR" {
		t.Errorf("requested name = %q, want GDET:FEE1:241:ENRCHSTCUHBR", gotName)
	}
	if len(vals) != 3 {
		t.Fatalf("len(vals) = %d, want 3", len(vals))
	}
	if vals[0] != 1.5 || !math.IsNaN(vals[1]) || vals[2] != 2.5 {
		t.Errorf("vals = %v, want [1.5 NaN 2.5]", vals)
	}
}

func TestClientGetValueGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "channel disconnected", http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.GetValue(context.Background(), "EVNT:SYS0:1:LCLSBEAMRATE")
	if err == nil {
		t.Fatal("GetValue returned nil error for a 502 response")
	}
	if !strings.Contains(err.Error(), "status=502") {
		t.Errorf("error = %v, want it to mention status=502", err)
	}
}

func TestClientGetValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pvs" {
			t.Errorf("path = %q, want /api/pvs", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		var req struct {
			Names []string `json:"names"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if len(req.Names) != 2 {
			t.Errorf("requested names = %v, want two channels", req.Names)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"values":{` +
			`"EM1K0:GMD:HPS:milliJoulesPerPulseHSTCUSBR":[1.0,null,3.0],` +
			`"CBLM:UNDH:1375:I0_LOSSHSTBR":[0.1,0.2,null]}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	vals, err := c.GetValues(context.Background(), []string{
		"EM1K0:GMD:HPS:milliJoulesPerPulseHSTCUSBR",
		"CBLM:UNDH:1375:I0_LOSSHSTBR",
	})
	if err != nil {
		t.Fatalf("GetValues returned error: %v", err)
	}
	gas := vals["EM1K0:GMD:HPS:milliJoulesPerPulseHSTCUSBR"]
	loss := vals["CBLM:UNDH:1375:I0_LOSSHSTBR"]
	if len(gas) != 3 || len(loss) != 3 {
		t.Fatalf("lengths = %d, %d, want 3, 3", len(gas), len(loss))
	}
	if gas[0] != 1.0 || !math.IsNaN(gas[1]) || gas[2] != 3.0 {
		t.Errorf("gas = %v, want [1 NaN 3]", gas)
	}
	if loss[0] != 0.1 || loss[1] != 0.2 || !math.IsNaN(loss[2]) {
		t.Errorf("loss = %v, want [0.1 0.2 NaN]", loss)
	}
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pv" {
			t.Errorf("path = %q, want /api/pv", r.URL.Path)
		}
		w.Write([]byte(`{"name":"x","values":[1]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL + "/")
	if _, err := c.GetValue(context.Background(), "x"); err != nil {
		t.Fatalf("GetValue returned error: %v", err)
	}
}

func TestClientPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"EVNT:SYS0:1:LCLSBEAMRATE","values":[120]}`))
	}))

	c := NewClient(server.URL)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}

	server.Close()
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("Ping returned nil error against a closed gateway")
	}
}

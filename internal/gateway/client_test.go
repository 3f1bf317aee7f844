package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, 0, zap.NewNop()), server
}

func TestSubmitEscalation_CriticalVerdict(t *testing.T) {
	var received EscalationReport

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/alert_status", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Verdict{Critical: true, Question: "How are you feeling?"})
	}))

	verdict, err := client.SubmitEscalation(context.Background(), EscalationReport{
		ReportID:  "r-1",
		HRV:       120.5,
		Agitation: 43.33,
		UserName:  "Demo Patient",
		UserEmail: "demo@example.com",
	})
	require.NoError(t, err)

	assert.True(t, verdict.Critical)
	assert.Equal(t, "How are you feeling?", verdict.Question)
	assert.Equal(t, 120.5, received.HRV)
	assert.Equal(t, "demo@example.com", received.UserEmail)
	assert.Equal(t, "r-1", received.ReportID)
}

func TestSubmitEscalation_ServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := client.SubmitEscalation(context.Background(), EscalationReport{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestExchangeAssessment_RoundTrip(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/assessment", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		// 校验 multipart 字段
		assert.Equal(t, "3", r.FormValue("num"))
		assert.Equal(t, "How did you sleep?", r.FormValue("question_text"))

		var metadata AssessmentMetadata
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("metadata")), &metadata))
		assert.Equal(t, "demo@example.com", metadata.UserEmail)

		var history []Turn
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("history")), &history))
		require.Len(t, history, 1)
		assert.Equal(t, "Q1", history[0].Question)

		file, header, err := r.FormFile("answer_audio")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "answer.wav", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(AssessmentResponse{
			Num:          4,
			History:      append(history, Turn{Question: "How did you sleep?", Answer: "Badly"}),
			Question:     "UklGRg==",
			QuestionText: "Tell me more",
			End:          false,
		})
	}))

	resp, err := client.ExchangeAssessment(context.Background(), AssessmentRequest{
		Metadata:     AssessmentMetadata{UserName: "Demo Patient", UserEmail: "demo@example.com"},
		Num:          3,
		History:      []Turn{{Question: "Q1", Answer: "A1"}},
		QuestionText: "How did you sleep?",
		AnswerAudio:  []byte("RIFFfake"),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, resp.Num)
	assert.Len(t, resp.History, 2)
	assert.Equal(t, "Tell me more", resp.QuestionText)
	assert.False(t, resp.End)
}

func TestExchangeAssessment_EmptyHistorySentAsArray(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		// 首轮会话 history 为空数组而不是 null
		assert.Equal(t, "[]", r.FormValue("history"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(AssessmentResponse{Num: 1, End: false})
	}))

	_, err := client.ExchangeAssessment(context.Background(), AssessmentRequest{
		Num:         0,
		AnswerAudio: []byte("RIFFfake"),
	})
	require.NoError(t, err)
}

func TestSubmitHealthReports(t *testing.T) {
	var sleepPath, activityPath string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health-metrics/sleep":
			sleepPath = r.URL.Path
		case "/health-metrics/activity":
			activityPath = r.URL.Path
		}
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, client.SubmitSleepReport(context.Background(), SleepReport{
		UserEmail: "demo@example.com", TotalSleepHours: 7.5,
	}))
	require.NoError(t, client.SubmitActivityReport(context.Background(), ActivityReport{
		UserEmail: "demo@example.com", Steps: 8000,
	}))

	assert.Equal(t, "/health-metrics/sleep", sleepPath)
	assert.Equal(t, "/health-metrics/activity", activityPath)
}

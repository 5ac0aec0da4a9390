package http

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/swaggest/swgui/v5emb"

	"vocab-quiz/internal/domain"
)

type leaderboardQuery struct {
	Limit int `query:"limit" description:"Number of participants, 1 to 50 (default 10)."`
}

type wsMessage struct {
	Type    string             `json:"type"`
	Payload domain.Leaderboard `json:"payload"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Vocab Quiz API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Question feed, result collection and leaderboard for the vocabulary quiz.")

	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	getQuestions, _ := r.NewOperationContext(http.MethodGet, "/api/questions")
	getQuestions.SetSummary("List questions")
	getQuestions.SetDescription("Returns the ordered question set, empty when the bank has no valid questions. Never cached.")
	getQuestions.AddRespStructure(QuestionsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getQuestions.AddRespStructure(QuestionsErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(getQuestions)

	postSubmit, _ := r.NewOperationContext(http.MethodPost, "/api/submit-result")
	postSubmit.SetSummary("Submit result")
	postSubmit.SetDescription("Stores a completed quiz. Identical submissions within a minute are acknowledged and skipped.")
	postSubmit.AddReqStructure(domain.ResultSubmission{})
	postSubmit.AddRespStructure(SubmitResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(postSubmit)

	postFeedback, _ := r.NewOperationContext(http.MethodPost, "/api/save-feedback")
	postFeedback.SetSummary("Save feedback")
	postFeedback.SetDescription("Attaches feedback to the latest result of the email.")
	postFeedback.AddReqStructure(FeedbackRequest{})
	postFeedback.AddRespStructure(SuccessResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postFeedback.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postFeedback.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postFeedback)

	getLeaderboard, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard")
	getLeaderboard.SetSummary("Leaderboard")
	getLeaderboard.SetDescription("Best result per phone, score descending then duration ascending.")
	getLeaderboard.AddReqStructure(leaderboardQuery{})
	getLeaderboard.AddRespStructure(LeaderboardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getLeaderboard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getLeaderboard)

	getWS, _ := r.NewOperationContext(http.MethodGet, "/ws/leaderboard")
	getWS.SetSummary("Live leaderboard")
	getWS.SetDescription("Upgrades to a WebSocket that pushes the board after every stored result.")
	getWS.AddRespStructure(wsMessage{}, openapi.WithHTTPStatus(http.StatusSwitchingProtocols))
	_ = r.AddOperation(getWS)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func handleSwaggerUI() http.Handler {
	return v5emb.New("Vocab Quiz API", "/openapi.json", "/docs")
}

package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "GeoQuest API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the GeoQuest location game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/auth/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/auth/login")
	postLogin.SetSummary("Log in")
	postLogin.SetDescription("Creates the user if needed and returns a 30-day session token.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(LoginResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postLogin)

	// GET /api/missions/list
	getMissions, _ := r.NewOperationContext(http.MethodGet, "/api/missions/list")
	getMissions.SetSummary("List missions")
	getMissions.SetDescription("Lists visible missions with their ordered locations.")
	getMissions.AddRespStructure(MissionsListResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getMissions)

	// GET /api/missions/{id}
	getMission, _ := r.NewOperationContext(http.MethodGet, "/api/missions/{id}")
	getMission.SetSummary("Get mission")
	getMission.AddRespStructure(MissionDetailResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMission.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getMission)

	// GET /api/locations/list
	getLocations, _ := r.NewOperationContext(http.MethodGet, "/api/locations/list")
	getLocations.SetSummary("List locations")
	getLocations.AddRespStructure(LocationsListResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getLocations)

	// GET /api/users/{userID}
	getUser, _ := r.NewOperationContext(http.MethodGet, "/api/users/{userID}")
	getUser.SetSummary("Get user")
	getUser.SetDescription("Returns the user with the cached points balance. Requires Bearer token.")
	getUser.AddRespStructure(UserResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getUser.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getUser)

	// GET /api/users/{userID}/points-transactions
	getTxs, _ := r.NewOperationContext(http.MethodGet, "/api/users/{userID}/points-transactions")
	getTxs.SetSummary("List points transactions")
	getTxs.SetDescription("The user's points ledger, newest first. Optional ?type=earned|used filter. Requires Bearer token.")
	getTxs.AddRespStructure(TransactionsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getTxs.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getTxs)

	// POST /api/users/{userID}/quests
	postQuest, _ := r.NewOperationContext(http.MethodPost, "/api/users/{userID}/quests")
	postQuest.SetSummary("Start quest")
	postQuest.SetDescription("Starts a new quest on a mission. Requires Bearer token.")
	postQuest.AddReqStructure(StartQuestRequest{})
	postQuest.AddRespStructure(StartQuestResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postQuest.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postQuest.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postQuest)

	// POST /api/users/{userID}/quests/{questID}
	postPath, _ := r.NewOperationContext(http.MethodPost, "/api/users/{userID}/quests/{questID}")
	postPath.SetSummary("Submit path")
	postPath.SetDescription("Submits the client's full recorded path. The stored path must be a prefix; " +
		"only the new suffix is appended. 409 means the histories diverged and the attempt cannot continue.")
	postPath.AddReqStructure(SubmitQuestRequest{})
	postPath.AddRespStructure(QuestProgressResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postPath.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postPath.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postPath.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postPath)

	// GET /api/users/{userID}/quests/{questID}/overview
	getOverview, _ := r.NewOperationContext(http.MethodGet, "/api/users/{userID}/quests/{questID}/overview")
	getOverview.SetSummary("Quest overview")
	getOverview.SetDescription("The quest's progress derived from stored state only. Requires Bearer token.")
	getOverview.AddRespStructure(QuestOverviewResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getOverview.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getOverview.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getOverview)

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

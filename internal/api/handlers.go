package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// deployResponse is the body of a successful GET /deploy
type deployResponse struct {
	Address         string `json:"address"`
	TransactionHash string `json:"transactionHash"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type deploymentResponse struct {
	Key     string                      `json:"key"`
	Status  models.DeploymentStatus     `json:"status"`
	Record  *models.DeploymentRecord    `json:"record,omitempty"`
	History []*models.RetiredDeployment `json:"history,omitempty"`
}

type deploymentsResponse struct {
	Deployments []*models.DeploymentRecord `json:"deployments"`
	Total       int                        `json:"total"`
	ByNetwork   map[string]int             `json:"byNetwork"`
}

// handleIndex returns service info
// GET / - Lists the trigger target and endpoints
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, map[string]any{
		"service":  "treb-deployd",
		"contract": s.opts.Request.ContractName,
		"network":  s.opts.Request.NetworkName,
		"endpoints": map[string]string{
			"GET /deploy":                           "Deploy the configured contract, or return the recorded deployment",
			"GET /deployments":                      "List recorded deployments (supports ?contract=, ?network=)",
			"GET /deployments/{contract}/{network}": "Show a deployment record, status and history",
			"GET /health":                           "Health check",
			"GET /metrics":                          "Prometheus metrics",
		},
	}, http.StatusOK)
}

// handleHealth returns health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}, http.StatusOK)
}

// handleDeploy runs the configured request through the orchestrator.
// Concurrent requests share one attempt; every failure is a 5xx.
// The GET route also matches HEAD, which must not start a deployment.
func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.sendError(w, errorResponse{Error: "method not allowed"}, http.StatusMethodNotAllowed)
		return
	}

	record, err := s.deployer.Run(r.Context(), s.opts.Request)
	if err != nil {
		if r.Context().Err() != nil {
			// client went away; the attempt continues for other callers
			s.log.Debug("deploy caller disconnected", "error", err)
			return
		}
		kind := domain.ErrorKind(err)
		s.log.Error("deployment failed", "kind", kind, "error", err)
		s.sendError(w, errorResponse{Error: err.Error(), Kind: kind}, deployStatus(kind))
		return
	}

	s.sendJSON(w, deployResponse{
		Address:         record.Address,
		TransactionHash: record.TransactionHash,
	}, http.StatusOK)
}

// handleListDeployments lists ledger records
// GET /deployments?contract=Registry&network=shibuya
func (s *Server) handleListDeployments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, err := s.lister.Run(r.Context(), usecase.ListDeploymentsParams{
		ContractName: query.Get("contract"),
		NetworkName:  query.Get("network"),
	})
	if err != nil {
		s.log.Error("failed to list deployments", "error", err)
		s.sendError(w, errorResponse{Error: err.Error(), Kind: domain.ErrorKind(err)}, http.StatusInternalServerError)
		return
	}

	deployments := result.Deployments
	if deployments == nil {
		deployments = []*models.DeploymentRecord{}
	}
	s.sendJSON(w, deploymentsResponse{
		Deployments: deployments,
		Total:       result.Summary.Total,
		ByNetwork:   result.Summary.ByNetwork,
	}, http.StatusOK)
}

// handleShowDeployment shows one key
// GET /deployments/{contract}/{network}
func (s *Server) handleShowDeployment(w http.ResponseWriter, r *http.Request) {
	details, err := s.shower.Run(r.Context(), usecase.ShowDeploymentParams{
		ContractName: r.PathValue("contract"),
		NetworkName:  r.PathValue("network"),
	})
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, domain.ErrNotFound) {
			code = http.StatusNotFound
		}
		s.sendError(w, errorResponse{Error: err.Error(), Kind: domain.ErrorKind(err)}, code)
		return
	}

	s.sendJSON(w, deploymentResponse{
		Key:     details.Key.String(),
		Status:  details.Status,
		Record:  details.Record,
		History: details.History,
	}, http.StatusOK)
}

// requireToken rejects requests without the configured bearer token.
// With no token configured every request passes.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AuthToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.AuthToken)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="deployd"`)
			s.sendError(w, errorResponse{Error: "missing or invalid bearer token", Kind: "Unauthorized"}, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// deployStatus maps an error kind to the /deploy response code
func deployStatus(kind string) int {
	switch kind {
	case domain.KindSubmissionError:
		return http.StatusBadGateway
	case domain.KindConfirmationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) sendJSON(w http.ResponseWriter, body any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("failed to write response", "error", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, body errorResponse, code int) {
	s.sendJSON(w, body, code)
}
